package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

type sessionRepository interface {
	Register(ctx context.Context, studentID, gameID, operatorID string) (*models.GameSession, bool, error)
	FindByID(ctx context.Context, id string) (*models.GameSession, error)
	NextPending(ctx context.Context, gameID string) (*models.GameSession, error)
	MarkStarted(ctx context.Context, id string) (int64, error)
	Complete(ctx context.Context, id string, score float64, duration *float64, metadata *string) (*models.GameSession, error)
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.GameSession, error)
	LatestCompleted(ctx context.Context, gameID string, studentIDs []string) ([]models.SessionResult, error)
}

type playWriter interface {
	InsertPlay(ctx context.Context, play *models.GamePlay) error
}

type studentAggregateStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ApplyPlay(ctx context.Context, studentID string, score float64) error
}

type gameStore interface {
	FindByID(ctx context.Context, id string) (*models.Game, error)
	ApplyPlay(ctx context.Context, gameID string, score float64) error
}

type resultsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type impactDispatcher interface {
	Dispatch(studentID, gameName string, score float64) error
}

type sessionMetrics interface {
	SessionRegistered()
	SessionCompleted()
}

// SessionService coordinates the pending → started → completed
// lifecycle. It is the only writer of session state transitions and
// the only trigger of the impact engine.
type SessionService struct {
	sessions   sessionRepository
	plays      playWriter
	students   studentAggregateStore
	games      gameStore
	cache      resultsCache
	engine     impactDispatcher
	metrics    sessionMetrics
	resultsTTL time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSessionService constructs the coordinator.
func NewSessionService(
	sessions sessionRepository,
	plays playWriter,
	students studentAggregateStore,
	games gameStore,
	cache resultsCache,
	engine impactDispatcher,
	metrics sessionMetrics,
	resultsTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:   sessions,
		plays:      plays,
		students:   students,
		games:      games,
		cache:      cache,
		engine:     engine,
		metrics:    metrics,
		resultsTTL: resultsTTL,
		validator:  validate,
		logger:     logger,
	}
}

// RegisterSessionRequest describes the registration payload.
type RegisterSessionRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	GameID     string `json:"game_id" validate:"required"`
	OperatorID string `json:"operator_id" validate:"required"`
}

// EndSessionRequest describes the completion payload.
type EndSessionRequest struct {
	Score    *float64               `json:"result_score" validate:"required,gte=0,lte=100"`
	Duration *float64               `json:"duration,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EndSessionResult is what both a fresh and a repeated end call return.
type EndSessionResult struct {
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Score     *float64 `json:"score"`
}

// SessionStatusResponse is the dashboard projection of one session.
type SessionStatusResponse struct {
	SessionID string              `json:"session_id"`
	GameID    string              `json:"game_id"`
	StudentID string              `json:"student_id"`
	State     models.SessionState `json:"state"`
	Started   bool                `json:"is_started"`
	Completed bool                `json:"completed"`
	Score     *float64            `json:"result_score,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	StartedAt *time.Time          `json:"start_time,omitempty"`
	EndedAt   *time.Time          `json:"end_time,omitempty"`
	Duration  *float64            `json:"duration,omitempty"`
}

// Register is idempotent: a live session for the tuple is returned
// unchanged, otherwise a pending one is created. Concurrent calls for
// one tuple converge on a single row.
func (s *SessionService) Register(ctx context.Context, req RegisterSessionRequest) (*models.GameSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing session identifiers")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, s.storeError(err, "failed to look up student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	game, err := s.games.FindByID(ctx, req.GameID)
	if err != nil {
		return nil, s.storeError(err, "failed to look up game")
	}
	if game == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "game not found")
	}

	session, created, err := s.sessions.Register(ctx, req.StudentID, req.GameID, req.OperatorID)
	if errors.Is(err, sql.ErrNoRows) {
		// The competing live row completed in the window between our
		// insert and lookup; one retry settles it.
		session, created, err = s.sessions.Register(ctx, req.StudentID, req.GameID, req.OperatorID)
	}
	if err != nil {
		return nil, s.storeError(err, "failed to register session")
	}
	if created {
		if s.metrics != nil {
			s.metrics.SessionRegistered()
		}
		s.logger.Info("session registered",
			zap.String("session_id", session.ID),
			zap.String("student_id", req.StudentID),
			zap.String("game_id", req.GameID))
	}
	return session, nil
}

// NextPending returns the oldest pending session for a game, or nil.
func (s *SessionService) NextPending(ctx context.Context, gameID string) (*models.GameSession, error) {
	if gameID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gameId is required")
	}
	session, err := s.sessions.NextPending(ctx, gameID)
	if err != nil {
		return nil, s.storeError(err, "failed to fetch next session")
	}
	return session, nil
}

// Start claims a session. Starting an already-started session is an
// idempotent no-op; starting a completed one is an invalid transition.
func (s *SessionService) Start(ctx context.Context, sessionID string) (*models.GameSession, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}

	rows, err := s.sessions.MarkStarted(ctx, sessionID)
	if err != nil {
		return nil, s.storeError(err, "failed to start session")
	}
	if rows == 0 {
		session, err := s.sessions.FindByID(ctx, sessionID)
		if err != nil {
			return nil, s.storeError(err, "failed to fetch session")
		}
		if session == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "session already completed")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.storeError(err, "failed to fetch session")
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return session, nil
}

// End completes a session and records its score. A session that was
// never started is accepted as an implicit start: the runtime may
// legitimately skip the start call after a reconnect. Repeating end
// returns the first recorded result; the play fact, the aggregate
// update and the impact engine fire at most once per session.
func (s *SessionService) End(ctx context.Context, sessionID string, req EndSessionRequest) (*EndSessionResult, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end payload")
	}

	var metadata *string
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metadata")
		}
		encoded := string(raw)
		metadata = &encoded
	}

	session, err := s.sessions.Complete(ctx, sessionID, *req.Score, req.Duration, metadata)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := s.sessions.FindByID(ctx, sessionID)
		if err != nil {
			return nil, s.storeError(err, "failed to fetch session")
		}
		if existing == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		// Already completed: surface the recorded result, never
		// re-run side effects.
		return &EndSessionResult{
			SessionID: existing.ID,
			Status:    string(existing.State),
			Score:     existing.Score,
		}, nil
	}
	if err != nil {
		return nil, s.storeError(err, "failed to end session")
	}

	s.recordCompletion(ctx, session, *req.Score)

	if s.metrics != nil {
		s.metrics.SessionCompleted()
	}
	s.logger.Info("session completed",
		zap.String("session_id", session.ID),
		zap.Float64("score", *req.Score))

	return &EndSessionResult{
		SessionID: session.ID,
		Status:    string(session.State),
		Score:     session.Score,
	}, nil
}

// recordCompletion appends the play fact, folds the score into the
// student and game running means, and hands the session to the impact
// engine. Failures here are logged, not surfaced: the committed
// completion is the durable source of truth and impacts are
// best-effort enrichment on top.
func (s *SessionService) recordCompletion(ctx context.Context, session *models.GameSession, score float64) {
	if err := s.plays.InsertPlay(ctx, &models.GamePlay{
		GameID:    session.GameID,
		StudentID: session.StudentID,
		Score:     score,
	}); err != nil {
		s.logger.Error("failed to record game play", zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	if err := s.students.ApplyPlay(ctx, session.StudentID, score); err != nil {
		s.logger.Error("failed to update student aggregates", zap.String("student_id", session.StudentID), zap.Error(err))
	}
	if err := s.games.ApplyPlay(ctx, session.GameID, score); err != nil {
		s.logger.Error("failed to update game aggregates", zap.String("game_id", session.GameID), zap.Error(err))
	}

	game, err := s.games.FindByID(ctx, session.GameID)
	if err != nil || game == nil {
		s.logger.Error("failed to resolve game for impact run", zap.String("game_id", session.GameID), zap.Error(err))
		return
	}
	if s.engine != nil {
		if err := s.engine.Dispatch(session.StudentID, game.Name, score); err != nil {
			s.logger.Error("failed to dispatch impact run", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
}

// Status returns the session projection for dashboard polling.
func (s *SessionService) Status(ctx context.Context, sessionID string) (*SessionStatusResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.storeError(err, "failed to fetch session")
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return &SessionStatusResponse{
		SessionID: session.ID,
		GameID:    session.GameID,
		StudentID: session.StudentID,
		State:     session.State,
		Started:   session.Started(),
		Completed: session.Completed(),
		Score:     session.Score,
		CreatedAt: session.CreatedAt,
		StartedAt: session.StartedAt,
		EndedAt:   session.EndedAt,
		Duration:  session.Duration,
	}, nil
}

// List returns sessions per filter for dashboard views.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.GameSession, error) {
	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, s.storeError(err, "failed to list sessions")
	}
	return sessions, nil
}

// LatestCompleted returns each student's newest completed result for a
// game. Results ride a short-lived cache sized to the dashboard poll
// interval.
func (s *SessionService) LatestCompleted(ctx context.Context, gameID string, studentIDs []string) (map[string]models.SessionResult, error) {
	if gameID == "" || len(studentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gameId and studentIds are required")
	}

	key := resultsCacheKey(gameID, studentIDs)
	if s.cache != nil {
		cached := map[string]models.SessionResult{}
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	results, err := s.sessions.LatestCompleted(ctx, gameID, studentIDs)
	if err != nil {
		return nil, s.storeError(err, "failed to fetch session results")
	}

	byStudent := make(map[string]models.SessionResult, len(results))
	for _, result := range results {
		byStudent[result.StudentID] = result
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, byStudent, s.resultsTTL); err != nil {
			s.logger.Warn("failed to cache session results", zap.Error(err))
		}
	}
	return byStudent, nil
}

// Cleanup removes pending sessions older than maxAge. Zero matches is
// a successful sweep, not an error.
func (s *SessionService) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "max_age must be positive")
	}
	deleted, err := s.sessions.DeleteStalePending(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, s.storeError(err, "failed to clean up sessions")
	}
	if deleted > 0 {
		s.logger.Info("stale pending sessions removed", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

func (s *SessionService) storeError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, message)
}

func resultsCacheKey(gameID string, studentIDs []string) string {
	ids := append([]string(nil), studentIDs...)
	sort.Strings(ids)
	return fmt.Sprintf("results:%s:%s", gameID, strings.Join(ids, ","))
}
