package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// SkillScoreRepository persists per-skill student scores.
type SkillScoreRepository struct {
	db *sqlx.DB
}

// NewSkillScoreRepository constructs a new repository.
func NewSkillScoreRepository(db *sqlx.DB) *SkillScoreRepository {
	return &SkillScoreRepository{db: db}
}

// Adjust applies a delta to the skill score as one atomic upsert.
// Absent rows seed at 65 for non-negative deltas and 50 otherwise (the
// asymmetry is inherited policy). Existing rows only change when the
// clamped result actually differs, and an update always clears the
// is_strength flag.
func (r *SkillScoreRepository) Adjust(ctx context.Context, studentID, skill string, delta float64) error {
	seed := float64(skillSeedPositive)
	if delta < 0 {
		seed = skillSeedNonPositive
	}
	query := `INSERT INTO student_skills (id, student_id, skill, score, is_strength)
VALUES ($1, $2, $3, LEAST(100, GREATEST(0, ROUND($5 + $4))), FALSE)
ON CONFLICT (student_id, skill)
DO UPDATE SET score = LEAST(100, GREATEST(0, ROUND(student_skills.score + $4))), is_strength = FALSE
WHERE LEAST(100, GREATEST(0, ROUND(student_skills.score + $4))) <> student_skills.score`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, skill, delta, seed); err != nil {
		return fmt.Errorf("adjust skill score %s: %w", skill, err)
	}
	return nil
}

// ListByStudent returns all skill scores for a student.
func (r *SkillScoreRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SkillScore, error) {
	query := `SELECT id, student_id, skill, score, is_strength FROM student_skills
WHERE student_id = $1 ORDER BY skill ASC`
	var scores []models.SkillScore
	if err := r.db.SelectContext(ctx, &scores, query, studentID); err != nil {
		return nil, fmt.Errorf("list skill scores: %w", err)
	}
	return scores, nil
}
