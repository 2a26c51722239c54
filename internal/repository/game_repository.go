package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// GameRepository reads game rows and maintains their play aggregates.
type GameRepository struct {
	db *sqlx.DB
}

// NewGameRepository constructs a new repository.
func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

// FindByID returns a game or nil.
func (r *GameRepository) FindByID(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := r.db.GetContext(ctx, &game, "SELECT id, name, plays, avg_score FROM games WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find game: %w", err)
	}
	return &game, nil
}

// FindByName returns a game by its unique name, or nil.
func (r *GameRepository) FindByName(ctx context.Context, name string) (*models.Game, error) {
	var game models.Game
	if err := r.db.GetContext(ctx, &game, "SELECT id, name, plays, avg_score FROM games WHERE name = $1", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find game by name: %w", err)
	}
	return &game, nil
}

// ApplyPlay folds a new score into the game's running mean.
func (r *GameRepository) ApplyPlay(ctx context.Context, gameID string, score float64) error {
	query := `UPDATE games
SET avg_score = (avg_score * plays + $2) / (plays + 1),
    plays = plays + 1
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, gameID, score); err != nil {
		return fmt.Errorf("apply play to game: %w", err)
	}
	return nil
}
