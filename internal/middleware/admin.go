package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/response"
)

// AdminScope is the claim value required on admin routes.
const AdminScope = "admin"

// Admin protects the admin group (cleanup, exports) with an HS256
// bearer token carrying scope=admin. Issuing tokens is the job of the
// external auth collaborator; this only verifies them.
func Admin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			c.Abort()
			return
		}

		if scope, _ := claims["scope"].(string); scope != AdminScope {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "admin scope required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
