package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// TraitRepository persists the presence-only strength and development
// area links.
type TraitRepository struct {
	db *sqlx.DB
}

// NewTraitRepository constructs a new repository.
func NewTraitRepository(db *sqlx.DB) *TraitRepository {
	return &TraitRepository{db: db}
}

// Grant inserts the trait link when absent.
func (r *TraitRepository) Grant(ctx context.Context, studentID string, kind models.TraitKind, trait, note string) error {
	query := `INSERT INTO student_traits (id, student_id, kind, trait, note, granted_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, kind, trait) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, kind, trait, note, time.Now().UTC()); err != nil {
		return fmt.Errorf("grant %s trait %s: %w", kind, trait, err)
	}
	return nil
}

// Revoke deletes the trait link if present.
func (r *TraitRepository) Revoke(ctx context.Context, studentID string, kind models.TraitKind, trait string) error {
	query := `DELETE FROM student_traits WHERE student_id = $1 AND kind = $2 AND trait = $3`
	if _, err := r.db.ExecContext(ctx, query, studentID, kind, trait); err != nil {
		return fmt.Errorf("revoke %s trait %s: %w", kind, trait, err)
	}
	return nil
}

// ListByStudent returns a student's traits of one kind.
func (r *TraitRepository) ListByStudent(ctx context.Context, studentID string, kind models.TraitKind) ([]models.StudentTrait, error) {
	query := `SELECT id, student_id, kind, trait, note, granted_at FROM student_traits
WHERE student_id = $1 AND kind = $2 ORDER BY trait ASC`
	var traits []models.StudentTrait
	if err := r.db.SelectContext(ctx, &traits, query, studentID, kind); err != nil {
		return nil, fmt.Errorf("list %s traits: %w", kind, err)
	}
	return traits, nil
}
