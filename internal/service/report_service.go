package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/repository"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/export"
)

// ReportFormat selects the rendered output.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type reportSubjectReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SubjectScore, error)
}

type reportSkillReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SkillScore, error)
}

type reportBadgeReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error)
}

type reportPlayReader interface {
	RecentPlays(ctx context.Context, studentID string, limit int) ([]repository.RecentPlay, error)
}

// Report is a rendered progress report.
type Report struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService renders a student's progress snapshot as CSV or PDF.
type ReportService struct {
	students studentReader
	subjects reportSubjectReader
	skills   reportSkillReader
	badges   reportBadgeReader
	plays    reportPlayReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(
	students studentReader,
	subjects reportSubjectReader,
	skills reportSkillReader,
	badges reportBadgeReader,
	plays reportPlayReader,
	csv csvRenderer,
	pdf pdfRenderer,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students: students,
		subjects: subjects,
		skills:   skills,
		badges:   badges,
		plays:    plays,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
	}
}

// Build assembles and renders the progress report.
func (s *ReportService) Build(ctx context.Context, studentID string, format ReportFormat) (*Report, error) {
	if format != ReportCSV && format != ReportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to look up student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	dataset, err := s.buildDataset(ctx, student)
	if err != nil {
		return nil, err
	}

	switch format {
	case ReportCSV:
		content, err := s.csv.Render(*dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &Report{
			Filename:    fmt.Sprintf("progress-%s.csv", studentID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	default:
		title := fmt.Sprintf("Progress Report - %s", student.Name)
		content, err := s.pdf.Render(*dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &Report{
			Filename:    fmt.Sprintf("progress-%s.pdf", studentID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	}
}

func (s *ReportService) buildDataset(ctx context.Context, student *models.Student) (*export.Dataset, error) {
	subjects, err := s.subjects.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list subject scores")
	}
	skills, err := s.skills.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list skill scores")
	}
	badges, err := s.badges.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list badges")
	}
	plays, err := s.plays.RecentPlays(ctx, student.ID, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list recent plays")
	}

	dataset := &export.Dataset{Headers: []string{"Section", "Item", "Value"}}
	add := func(section, item, value string) {
		dataset.Records = append(dataset.Records, []string{section, item, value})
	}

	add("Summary", "Student", student.Name)
	add("Summary", "Games Played", strconv.Itoa(student.GamesPlayed))
	add("Summary", "Average Score", formatScore(student.AvgScore))
	add("Summary", "Progress Status", student.ProgressStatus)

	for _, subject := range subjects {
		add("Subjects", subject.Subject, formatScore(subject.Score))
	}
	for _, skill := range skills {
		add("Skills", skill.Skill, formatScore(skill.Score))
	}
	for _, badge := range badges {
		add("Badges", badge.Badge, badge.AwardedAt.Format("2006-01-02"))
	}
	for _, play := range plays {
		add("Recent Plays", play.GameName, formatScore(play.Score))
	}

	return dataset, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}
