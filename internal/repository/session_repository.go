package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edubright/gamesync-api/internal/models"
)

const sessionColumns = "id, student_id, game_id, operator_id, state, score, duration, metadata, created_at, started_at, ended_at, updated_at"

// SessionRepository manages persistence for game sessions. The table
// carries a partial unique index on (student_id, game_id, operator_id)
// over non-completed rows, which is what makes registration race-free.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a new repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Register atomically creates a pending session for the tuple, or
// returns the already-live one. Two near-simultaneous calls for the
// same tuple always converge on a single row: the insert is guarded by
// the partial unique index, never by a check-then-insert.
func (r *SessionRepository) Register(ctx context.Context, studentID, gameID, operatorID string) (*models.GameSession, bool, error) {
	now := time.Now().UTC()
	session := &models.GameSession{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		GameID:     gameID,
		OperatorID: operatorID,
		State:      models.SessionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `INSERT INTO game_sessions (id, student_id, game_id, operator_id, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (student_id, game_id, operator_id) WHERE state <> 'completed' DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, session.ID, studentID, gameID, operatorID, models.SessionPending, now)
	if err != nil {
		return nil, false, fmt.Errorf("register session: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 1 {
		return session, true, nil
	}

	existing, err := r.findLive(ctx, studentID, gameID, operatorID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The conflicting row completed between insert and lookup;
		// the caller retries registration.
		return nil, false, sql.ErrNoRows
	}
	return existing, false, nil
}

func (r *SessionRepository) findLive(ctx context.Context, studentID, gameID, operatorID string) (*models.GameSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM game_sessions
WHERE student_id = $1 AND game_id = $2 AND operator_id = $3 AND state <> 'completed'`, sessionColumns)
	var session models.GameSession
	if err := r.db.GetContext(ctx, &session, query, studentID, gameID, operatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find live session: %w", err)
	}
	return &session, nil
}

// FindByID returns a session or nil when absent.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.GameSession, error) {
	query := fmt.Sprintf("SELECT %s FROM game_sessions WHERE id = $1", sessionColumns)
	var session models.GameSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// NextPending returns the oldest pending session for a game, or nil.
// Peek only: concurrent pollers may observe the same row, the claim
// point is Start.
func (r *SessionRepository) NextPending(ctx context.Context, gameID string) (*models.GameSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM game_sessions
WHERE game_id = $1 AND state = $2 ORDER BY created_at ASC LIMIT 1`, sessionColumns)
	var session models.GameSession
	if err := r.db.GetContext(ctx, &session, query, gameID, models.SessionPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("next pending session: %w", err)
	}
	return &session, nil
}

// MarkStarted transitions pending (or started, as a no-op refresh) to
// started. Returns the number of rows touched; zero means the session
// is absent or already completed.
func (r *SessionRepository) MarkStarted(ctx context.Context, id string) (int64, error) {
	now := time.Now().UTC()
	query := `UPDATE game_sessions
SET state = $2, started_at = COALESCE(started_at, $3), updated_at = $3
WHERE id = $1 AND state <> 'completed'`
	res, err := r.db.ExecContext(ctx, query, id, models.SessionStarted, now)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("start session rows: %w", err)
	}
	return rows, nil
}

// Complete performs the single conditional write that transitions a
// session to completed. sql.ErrNoRows means no transition happened:
// either the id is unknown or the session already completed, and the
// caller distinguishes via FindByID. The impact engine keys off a
// successful return, which can happen at most once per session.
func (r *SessionRepository) Complete(ctx context.Context, id string, score float64, duration *float64, metadata *string) (*models.GameSession, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE game_sessions
SET state = 'completed',
    score = $2,
    duration = COALESCE($3, EXTRACT(EPOCH FROM ($4::timestamptz - started_at))),
    metadata = COALESCE($5, metadata),
    ended_at = $4,
    updated_at = $4
WHERE id = $1 AND state <> 'completed'
RETURNING %s`, sessionColumns)
	var session models.GameSession
	if err := r.db.GetContext(ctx, &session, query, id, score, duration, now, metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return &session, nil
}

// DeleteStalePending removes pending sessions created before the
// cutoff. Started and completed rows are never touched, whatever their
// age. Stray pending duplicates of an already-completed pair fall out
// of the registry through this same sweep once stale.
func (r *SessionRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM game_sessions WHERE state = $1 AND created_at < $2",
		models.SessionPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions rows: %w", err)
	}
	return rows, nil
}

// List returns sessions per provided filter, newest first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.GameSession, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.GameID != "" {
		where = append(where, fmt.Sprintf("game_id = $%d", len(args)+1))
		args = append(args, filter.GameID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.State != "" {
		where = append(where, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM game_sessions WHERE %s ORDER BY created_at DESC LIMIT %d",
		sessionColumns, strings.Join(where, " AND "), limit)
	var sessions []models.GameSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// LatestCompleted returns the most recent completed result per student
// for one game, for dashboard polling.
func (r *SessionRepository) LatestCompleted(ctx context.Context, gameID string, studentIDs []string) ([]models.SessionResult, error) {
	query := `SELECT DISTINCT ON (student_id) student_id, score, state = 'completed' AS completed, updated_at
FROM game_sessions
WHERE game_id = $1 AND student_id = ANY($2) AND state = 'completed'
ORDER BY student_id, ended_at DESC`
	var results []models.SessionResult
	if err := r.db.SelectContext(ctx, &results, query, gameID, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("latest completed sessions: %w", err)
	}
	return results, nil
}
