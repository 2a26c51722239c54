package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubright/gamesync-api/internal/models"
)

// ActionPlanRepository persists student action plans and reads their
// static templates.
type ActionPlanRepository struct {
	db *sqlx.DB
}

// NewActionPlanRepository constructs a new repository.
func NewActionPlanRepository(db *sqlx.DB) *ActionPlanRepository {
	return &ActionPlanRepository{db: db}
}

// InsertIfAbsent opens a plan for the goal unless one already exists
// for the student, whatever its status.
func (r *ActionPlanRepository) InsertIfAbsent(ctx context.Context, plan *models.ActionPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = models.ActionPlanOpen
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO student_action_plans (id, student_id, type, goal, status, created_at)
VALUES (:id, :student_id, :type, :goal, :status, :created_at)
ON CONFLICT (student_id, goal) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("insert action plan: %w", err)
	}
	return nil
}

// MarkCompleted closes any plan for the (student, goal) pair.
func (r *ActionPlanRepository) MarkCompleted(ctx context.Context, studentID, goal string) error {
	query := `UPDATE student_action_plans SET status = $3 WHERE student_id = $1 AND goal = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, goal, models.ActionPlanCompleted); err != nil {
		return fmt.Errorf("complete action plan: %w", err)
	}
	return nil
}

// ListByStudent returns a student's plans ordered short, medium then
// long term.
func (r *ActionPlanRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ActionPlan, error) {
	query := `SELECT id, student_id, type, goal, status, created_at FROM student_action_plans
WHERE student_id = $1
ORDER BY CASE type
    WHEN 'short_term' THEN 1
    WHEN 'medium_term' THEN 2
    WHEN 'long_term' THEN 3
    ELSE 4
END, created_at ASC`
	var plans []models.ActionPlan
	if err := r.db.SelectContext(ctx, &plans, query, studentID); err != nil {
		return nil, fmt.Errorf("list action plans: %w", err)
	}
	return plans, nil
}

// Templates returns every stored action plan template row.
func (r *ActionPlanRepository) Templates(ctx context.Context) ([]models.ActionPlanTemplateRow, error) {
	query := `SELECT id, type, goal, condition, target_condition FROM action_plan_templates`
	var rows []models.ActionPlanTemplateRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list action plan templates: %w", err)
	}
	return rows, nil
}
