package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/service"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/response"
)

type sessionService interface {
	Register(ctx context.Context, req service.RegisterSessionRequest) (*models.GameSession, error)
	NextPending(ctx context.Context, gameID string) (*models.GameSession, error)
	Start(ctx context.Context, sessionID string) (*models.GameSession, error)
	End(ctx context.Context, sessionID string, req service.EndSessionRequest) (*service.EndSessionResult, error)
	Status(ctx context.Context, sessionID string) (*service.SessionStatusResponse, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.GameSession, error)
	LatestCompleted(ctx context.Context, gameID string, studentIDs []string) (map[string]models.SessionResult, error)
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
}

// SessionHandler exposes the game session synchronization endpoints
// consumed by the game runtime and the dashboard pollers.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Register godoc
// @Summary Register a game session
// @Tags Game Sync
// @Accept json
// @Produce json
// @Param payload body service.RegisterSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /game-sync/sessions [post]
func (h *SessionHandler) Register(c *gin.Context) {
	var req service.RegisterSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Next godoc
// @Summary Peek the oldest pending session for a game
// @Tags Game Sync
// @Produce json
// @Param gameId query string true "Game ID"
// @Success 200 {object} response.Envelope
// @Router /game-sync/sessions/next [get]
func (h *SessionHandler) Next(c *gin.Context) {
	session, err := h.sessions.NextPending(c.Request.Context(), c.Query("gameId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Start godoc
// @Summary Start a session
// @Tags Game Sync
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /game-sync/sessions/{id}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	session, err := h.sessions.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "started", "session_id": session.ID}, nil)
}

// End godoc
// @Summary End a session and record its score
// @Tags Game Sync
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.EndSessionRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Router /game-sync/sessions/{id}/end [post]
func (h *SessionHandler) End(c *gin.Context) {
	var req service.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.sessions.End(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Get session status
// @Tags Game Sync
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /game-sync/sessions/{id} [get]
func (h *SessionHandler) Status(c *gin.Context) {
	status, err := h.sessions.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// List godoc
// @Summary List sessions
// @Tags Game Sync
// @Produce json
// @Param gameId query string false "Filter by game"
// @Param studentId query string false "Filter by student"
// @Param state query string false "Filter by state"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /game-sync/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		GameID:    c.Query("gameId"),
		StudentID: c.Query("studentId"),
		State:     models.SessionState(c.Query("state")),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	sessions, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Results godoc
// @Summary Latest completed results per student for a game
// @Tags Game Sync
// @Produce json
// @Param gameId query string true "Game ID"
// @Param studentIds query string true "Comma separated student IDs"
// @Success 200 {object} response.Envelope
// @Router /game-sync/results [get]
func (h *SessionHandler) Results(c *gin.Context) {
	var studentIDs []string
	for _, id := range strings.Split(c.Query("studentIds"), ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			studentIDs = append(studentIDs, trimmed)
		}
	}
	results, err := h.sessions.LatestCompleted(c.Request.Context(), c.Query("gameId"), studentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// CleanupRequest describes the admin sweep payload.
type CleanupRequest struct {
	MaxAge string `json:"max_age" binding:"required"`
}

// Cleanup godoc
// @Summary Remove stale pending sessions
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body CleanupRequest true "Sweep payload"
// @Success 200 {object} response.Envelope
// @Router /admin/sessions/cleanup [post]
func (h *SessionHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	maxAge, err := time.ParseDuration(req.MaxAge)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "max_age must be a duration such as 1h"))
		return
	}
	deleted, err := h.sessions.Cleanup(c.Request.Context(), maxAge)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted_count": deleted}, nil)
}
