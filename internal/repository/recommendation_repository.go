package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// RecommendationRepository persists per-student game suggestions.
type RecommendationRepository struct {
	db *sqlx.DB
}

// NewRecommendationRepository constructs a new repository.
func NewRecommendationRepository(db *sqlx.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Insert records the suggestion unless the game is already recommended
// to the student.
func (r *RecommendationRepository) Insert(ctx context.Context, rec *models.RecommendedGame) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecommendedAt.IsZero() {
		rec.RecommendedAt = time.Now().UTC()
	}
	query := `INSERT INTO student_recommended_games (id, student_id, game_id, reason, recommended_at)
VALUES (:id, :student_id, :game_id, :reason, :recommended_at)
ON CONFLICT (student_id, game_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// ListByStudent returns a student's recommendations, newest first.
func (r *RecommendationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RecommendedGame, error) {
	query := `SELECT id, student_id, game_id, reason, recommended_at FROM student_recommended_games
WHERE student_id = $1 ORDER BY recommended_at DESC`
	var recs []models.RecommendedGame
	if err := r.db.SelectContext(ctx, &recs, query, studentID); err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}
