package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// RecentPlay pairs a play score with its game name for template
// matching over the last plays.
type RecentPlay struct {
	GameID   string  `db:"game_id"`
	GameName string  `db:"game_name"`
	Score    float64 `db:"score"`
}

// PlayRepository persists game play facts and the per-play historical
// performance records.
type PlayRepository struct {
	db *sqlx.DB
}

// NewPlayRepository constructs a new repository.
func NewPlayRepository(db *sqlx.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// InsertPlay appends the immutable play fact.
func (r *PlayRepository) InsertPlay(ctx context.Context, play *models.GamePlay) error {
	if play.ID == "" {
		play.ID = uuid.NewString()
	}
	if play.PlayedAt.IsZero() {
		play.PlayedAt = time.Now().UTC()
	}
	query := `INSERT INTO game_plays (id, game_id, student_id, score, played_at)
VALUES (:id, :game_id, :student_id, :score, :played_at)`
	if _, err := r.db.NamedExecContext(ctx, query, play); err != nil {
		return fmt.Errorf("insert game play: %w", err)
	}
	return nil
}

// RecentPlays returns the student's most recent plays with resolved
// game names, newest first.
func (r *PlayRepository) RecentPlays(ctx context.Context, studentID string, limit int) ([]RecentPlay, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT gp.game_id, g.name AS game_name, gp.score
FROM game_plays gp
JOIN games g ON g.id = gp.game_id
WHERE gp.student_id = $1
ORDER BY gp.played_at DESC LIMIT %d`, limit)
	var plays []RecentPlay
	if err := r.db.SelectContext(ctx, &plays, query, studentID); err != nil {
		return nil, fmt.Errorf("recent plays: %w", err)
	}
	return plays, nil
}

// InsertPerformance appends the historical performance record.
func (r *PlayRepository) InsertPerformance(ctx context.Context, perf *models.StudentGamePerformance) error {
	if perf.ID == "" {
		perf.ID = uuid.NewString()
	}
	if perf.PlayDate.IsZero() {
		perf.PlayDate = time.Now().UTC()
	}
	query := `INSERT INTO student_game_performances (id, student_id, game_id, score, play_date)
VALUES (:id, :student_id, :game_id, :score, :play_date)`
	if _, err := r.db.NamedExecContext(ctx, query, perf); err != nil {
		return fmt.Errorf("insert game performance: %w", err)
	}
	return nil
}
