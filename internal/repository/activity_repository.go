package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// ActivityRepository appends dashboard activity feed entries.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs a new repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends a feed entry.
func (r *ActivityRepository) Insert(ctx context.Context, activity *models.RecentActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO recent_activities (id, type, title, description, created_at)
VALUES (:id, :type, :title, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
