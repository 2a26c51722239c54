package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// Score baselines used when a row is first touched by an adjustment.
const (
	subjectBaseline      = 65
	skillSeedPositive    = 65
	skillSeedNonPositive = 50
)

// SubjectScoreRepository persists per-subject student scores.
type SubjectScoreRepository struct {
	db *sqlx.DB
}

// NewSubjectScoreRepository constructs a new repository.
func NewSubjectScoreRepository(db *sqlx.DB) *SubjectScoreRepository {
	return &SubjectScoreRepository{db: db}
}

// Adjust applies a delta to the subject score as one atomic upsert.
// Absent rows start from the 65 baseline; the result is rounded and
// clamped to [0,100].
func (r *SubjectScoreRepository) Adjust(ctx context.Context, studentID, subject string, delta float64) error {
	query := `INSERT INTO student_subject_scores (id, student_id, subject, score)
VALUES ($1, $2, $3, LEAST(100, GREATEST(0, ROUND($5 + $4))))
ON CONFLICT (student_id, subject)
DO UPDATE SET score = LEAST(100, GREATEST(0, ROUND(student_subject_scores.score + $4)))`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, subject, delta, float64(subjectBaseline)); err != nil {
		return fmt.Errorf("adjust subject score %s: %w", subject, err)
	}
	return nil
}

// ListByStudent returns all subject scores for a student.
func (r *SubjectScoreRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SubjectScore, error) {
	query := `SELECT id, student_id, subject, score FROM student_subject_scores
WHERE student_id = $1 ORDER BY subject ASC`
	var scores []models.SubjectScore
	if err := r.db.SelectContext(ctx, &scores, query, studentID); err != nil {
		return nil, fmt.Errorf("list subject scores: %w", err)
	}
	return scores, nil
}
