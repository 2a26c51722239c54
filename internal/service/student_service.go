package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

type actionPlanReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ActionPlan, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// StudentService serves the student-facing projections this subsystem
// produces.
type StudentService struct {
	students studentReader
	plans    actionPlanReader
	logger   *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(students studentReader, plans actionPlanReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, plans: plans, logger: logger}
}

// ActionPlans returns the student's plans ordered short, medium then
// long term.
func (s *StudentService) ActionPlans(ctx context.Context, studentID string) ([]models.ActionPlan, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to look up student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	plans, err := s.plans.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list action plans")
	}
	return plans, nil
}
