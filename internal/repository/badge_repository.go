package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// BadgeRepository persists presence-only badge awards.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs a new repository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Award grants the badge when not already held.
func (r *BadgeRepository) Award(ctx context.Context, studentID, badge string) error {
	query := `INSERT INTO student_badges (id, student_id, badge, awarded_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, badge) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, badge, time.Now().UTC()); err != nil {
		return fmt.Errorf("award badge %s: %w", badge, err)
	}
	return nil
}

// ListByStudent returns a student's badges, newest first.
func (r *BadgeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error) {
	query := `SELECT id, student_id, badge, awarded_at FROM student_badges
WHERE student_id = $1 ORDER BY awarded_at DESC`
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query, studentID); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}
