package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectScoreRepositoryAdjustSeedsBaseline(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewSubjectScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DO UPDATE SET score = LEAST(100, GREATEST(0, ROUND(student_subject_scores.score + $4)))")).
		WithArgs(sqlmock.AnyArg(), "student-1", "Math", 5.0, 65.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Adjust(context.Background(), "student-1", "Math", 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectScoreRepositoryAdjustNegativeDelta(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewSubjectScoreRepository(db)

	// Subjects always seed from 65 regardless of delta sign.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, subject)")).
		WithArgs(sqlmock.AnyArg(), "student-1", "Math", -3.0, 65.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Adjust(context.Background(), "student-1", "Math", -3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectScoreRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewSubjectScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject", "score"}).
		AddRow("1", "student-1", "Math", 70.0).
		AddRow("2", "student-1", "Science", 65.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_subject_scores")).
		WithArgs("student-1").
		WillReturnRows(rows)

	scores, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 70.0, scores[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
