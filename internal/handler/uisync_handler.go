package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/service"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/response"
)

type uiSyncService interface {
	Update(ctx context.Context, req service.UISyncRequest) (*models.UISyncState, error)
	Current(ctx context.Context) (*models.UISyncState, error)
}

// UISyncHandler exposes the runtime/dashboard sync channel.
type UISyncHandler struct {
	sync uiSyncService
}

// NewUISyncHandler constructs UISyncHandler.
func NewUISyncHandler(sync uiSyncService) *UISyncHandler {
	return &UISyncHandler{sync: sync}
}

// Update godoc
// @Summary Push the shared UI sync snapshot
// @Tags Game Sync
// @Accept json
// @Produce json
// @Param payload body service.UISyncRequest true "Sync payload"
// @Success 200 {object} response.Envelope
// @Router /game-sync/ui-sync [post]
func (h *UISyncHandler) Update(c *gin.Context) {
	var req service.UISyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.sync.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Status godoc
// @Summary Read the shared UI sync snapshot
// @Tags Game Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /game-sync/ui-sync-status [get]
func (h *UISyncHandler) Status(c *gin.Context) {
	state, err := h.sync.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
