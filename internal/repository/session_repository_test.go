package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubright/gamesync-api/internal/models"
)

func newSessionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(id string, state models.SessionState) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "student_id", "game_id", "operator_id", "state", "score", "duration", "metadata", "created_at", "started_at", "ended_at", "updated_at"}).
		AddRow(id, "student-1", "game-1", "op-1", state, nil, nil, nil, now, nil, nil, now)
}

func TestSessionRepositoryRegisterCreates(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, game_id, operator_id) WHERE state <> 'completed' DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "student-1", "game-1", "op-1", models.SessionPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, created, err := repo.Register(context.Background(), "student-1", "game-1", "op-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.SessionPending, session.State)
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryRegisterReturnsExisting(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, game_id, operator_id) WHERE state <> 'completed' DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "student-1", "game-1", "op-1", models.SessionPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("state <> 'completed'")).
		WithArgs("student-1", "game-1", "op-1").
		WillReturnRows(sessionRows("existing-1", models.SessionStarted))

	session, created, err := repo.Register(context.Background(), "student-1", "game-1", "op-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing-1", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryRegisterRaceSignalsRetry(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "student-1", "game-1", "op-1", models.SessionPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("state <> 'completed'")).
		WithArgs("student-1", "game-1", "op-1").
		WillReturnError(sql.ErrNoRows)

	_, _, err := repo.Register(context.Background(), "student-1", "game-1", "op-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryNextPendingOrdersByAge(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC LIMIT 1")).
		WithArgs("game-1", models.SessionPending).
		WillReturnRows(sessionRows("oldest", models.SessionPending))

	session, err := repo.NextPending(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, "oldest", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryNextPendingEmpty(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC LIMIT 1")).
		WithArgs("game-1", models.SessionPending).
		WillReturnError(sql.ErrNoRows)

	session, err := repo.NextPending(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryMarkStarted(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("started_at = COALESCE(started_at, $3)")).
		WithArgs("session-1", models.SessionStarted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.MarkStarted(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryMarkStartedCompletedIsNoop(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("started_at = COALESCE(started_at, $3)")).
		WithArgs("session-1", models.SessionStarted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.MarkStarted(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryComplete(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	score := 88.0
	rows := sqlmock.NewRows([]string{"id", "student_id", "game_id", "operator_id", "state", "score", "duration", "metadata", "created_at", "started_at", "ended_at", "updated_at"}).
		AddRow("session-1", "student-1", "game-1", "op-1", models.SessionCompleted, score, 120.0, nil, now, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SET state = 'completed'")).
		WithArgs("session-1", score, nil, sqlmock.AnyArg(), nil).
		WillReturnRows(rows)

	session, err := repo.Complete(context.Background(), "session-1", score, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.State)
	require.NotNil(t, session.Score)
	assert.Equal(t, score, *session.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCompleteAlreadyCompleted(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET state = 'completed'")).
		WithArgs("session-1", 50.0, nil, sqlmock.AnyArg(), nil).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Complete(context.Background(), "session-1", 50, nil, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteStalePending(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	cutoff := time.Now().Add(-time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM game_sessions WHERE state = $1 AND created_at < $2")).
		WithArgs(models.SessionPending, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteStalePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLatestCompleted(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	score := 91.0
	rows := sqlmock.NewRows([]string{"student_id", "score", "completed", "updated_at"}).
		AddRow("student-1", score, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (student_id)")).
		WithArgs("game-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	results, err := repo.LatestCompleted(context.Background(), "game-1", []string{"student-1", "student-2"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Completed)
	require.NotNil(t, results[0].Score)
	assert.Equal(t, score, *results[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
