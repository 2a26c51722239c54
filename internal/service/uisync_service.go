package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

const uiSyncKey = "ui:sync"

type uiSyncCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// UISyncService keeps the shared runtime/dashboard sync snapshot in
// Redis so it survives restarts and is consistent across instances.
type UISyncService struct {
	cache     uiSyncCache
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUISyncService constructs the service.
func NewUISyncService(cache uiSyncCache, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *UISyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UISyncService{cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// UISyncRequest describes the sync push payload.
type UISyncRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	SessionID string   `json:"session_id" validate:"required"`
	Completed *bool    `json:"completed,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// Update merges the pushed fields into the stored snapshot.
func (s *UISyncService) Update(ctx context.Context, req UISyncRequest) (*models.UISyncState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync payload")
	}

	state, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	state.StudentID = req.StudentID
	state.SessionID = req.SessionID
	if req.Completed != nil {
		state.Completed = *req.Completed
	}
	if req.Score != nil {
		state.Score = req.Score
	}

	if err := s.cache.Set(ctx, uiSyncKey, state, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store sync state")
	}

	s.logger.Debug("ui sync updated",
		zap.String("student_id", state.StudentID),
		zap.String("session_id", state.SessionID),
		zap.Bool("completed", state.Completed))
	return state, nil
}

// Current returns the stored snapshot, zero-valued when nothing has
// been pushed yet.
func (s *UISyncService) Current(ctx context.Context) (*models.UISyncState, error) {
	state := &models.UISyncState{}
	if err := s.cache.Get(ctx, uiSyncKey, state); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return &models.UISyncState{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read sync state")
	}
	return state, nil
}
