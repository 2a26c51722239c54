package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// StudentRepository reads and updates the aggregate fields this
// service owns on student rows. Full student CRUD lives with the
// entity collaborator.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student's aggregate projection or nil.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT id, name, games_played, avg_score, last_active, progress_status
FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ApplyPlay folds one new score into the running mean in a single
// atomic statement: avg' = (avg*n + score)/(n+1), n' = n+1.
func (r *StudentRepository) ApplyPlay(ctx context.Context, studentID string, score float64) error {
	query := `UPDATE students
SET avg_score = (avg_score * games_played + $2) / (games_played + 1),
    games_played = games_played + 1
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, score)
	if err != nil {
		return fmt.Errorf("apply play to student: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetProgress stamps last_active and the recomputed progress status.
func (r *StudentRepository) SetProgress(ctx context.Context, studentID, status string, lastActive time.Time) error {
	query := `UPDATE students SET last_active = $2, progress_status = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, lastActive, status); err != nil {
		return fmt.Errorf("set student progress: %w", err)
	}
	return nil
}
