package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/repository"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/export"
)

type reportStudentMock struct {
	student *models.Student
}

func (m *reportStudentMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.student, nil
}

type reportSubjectMock struct{ scores []models.SubjectScore }

func (m *reportSubjectMock) ListByStudent(ctx context.Context, studentID string) ([]models.SubjectScore, error) {
	return m.scores, nil
}

type reportSkillMock struct{ scores []models.SkillScore }

func (m *reportSkillMock) ListByStudent(ctx context.Context, studentID string) ([]models.SkillScore, error) {
	return m.scores, nil
}

type reportBadgeMock struct{ badges []models.Badge }

func (m *reportBadgeMock) ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error) {
	return m.badges, nil
}

type reportPlayMock struct{ plays []repository.RecentPlay }

func (m *reportPlayMock) RecentPlays(ctx context.Context, studentID string, limit int) ([]repository.RecentPlay, error) {
	return m.plays, nil
}

func newReportFixture(student *models.Student) *ReportService {
	return NewReportService(
		&reportStudentMock{student: student},
		&reportSubjectMock{scores: []models.SubjectScore{{Subject: "Math", Score: 72}}},
		&reportSkillMock{scores: []models.SkillScore{{Skill: "logic", Score: 68}}},
		&reportBadgeMock{badges: []models.Badge{{Badge: "Math Blaster", AwardedAt: time.Now()}}},
		&reportPlayMock{plays: []repository.RecentPlay{{GameID: "game-1", GameName: "Math Blaster", Score: 80}}},
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		nil,
	)
}

func TestReportServiceBuildCSV(t *testing.T) {
	svc := newReportFixture(&models.Student{ID: "student-1", Name: "Ada", GamesPlayed: 5, AvgScore: 71.4, ProgressStatus: models.ProgressOnTrack})

	report, err := svc.Build(context.Background(), "student-1", ReportCSV)
	require.NoError(t, err)
	assert.Equal(t, "progress-student-1.csv", report.Filename)
	assert.Equal(t, "text/csv", report.ContentType)

	body := string(report.Content)
	assert.True(t, strings.HasPrefix(body, "Section,Item,Value"))
	assert.Contains(t, body, "Summary,Student,Ada")
	assert.Contains(t, body, "Summary,Average Score,71.4")
	assert.Contains(t, body, "Subjects,Math,72.0")
	assert.Contains(t, body, "Skills,logic,68.0")
	assert.Contains(t, body, "Recent Plays,Math Blaster,80.0")
}

func TestReportServiceBuildPDF(t *testing.T) {
	svc := newReportFixture(&models.Student{ID: "student-1", Name: "Ada"})

	report, err := svc.Build(context.Background(), "student-1", ReportPDF)
	require.NoError(t, err)
	assert.Equal(t, "progress-student-1.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Content), "%PDF"))
}

func TestReportServiceUnknownStudent(t *testing.T) {
	svc := newReportFixture(nil)

	_, err := svc.Build(context.Background(), "missing", ReportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newReportFixture(&models.Student{ID: "student-1", Name: "Ada"})

	_, err := svc.Build(context.Background(), "student-1", ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
