package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/service"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
)

type studentServiceMock struct {
	plans    []models.ActionPlan
	plansErr error
}

func (m *studentServiceMock) ActionPlans(ctx context.Context, studentID string) ([]models.ActionPlan, error) {
	return m.plans, m.plansErr
}

type reportServiceMock struct {
	report     *service.Report
	err        error
	lastFormat service.ReportFormat
}

func (m *reportServiceMock) Build(ctx context.Context, studentID string, format service.ReportFormat) (*service.Report, error) {
	m.lastFormat = format
	return m.report, m.err
}

func TestStudentHandlerActionPlans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studentServiceMock{plans: []models.ActionPlan{{Goal: "Practice drills", Status: models.ActionPlanOpen}}}
	handler := NewStudentHandler(mockSvc, &reportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/student-1/action-plans", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.ActionPlans(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Practice drills")
}

func TestStudentHandlerActionPlansUnknownStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studentServiceMock{plansErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	handler := NewStudentHandler(mockSvc, &reportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/missing/action-plans", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.ActionPlans(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerProgressReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockReports := &reportServiceMock{report: &service.Report{
		Filename:    "progress-student-1.csv",
		ContentType: "text/csv",
		Content:     []byte("Section,Item,Value\n"),
	}}
	handler := NewStudentHandler(&studentServiceMock{}, mockReports)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/student-1/progress-report?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.ProgressReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ReportCSV, mockReports.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "progress-student-1.csv")
}

func TestStudentHandlerProgressReportDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockReports := &reportServiceMock{report: &service.Report{Filename: "r.csv", ContentType: "text/csv"}}
	handler := NewStudentHandler(&studentServiceMock{}, mockReports)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/student-1/progress-report", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.ProgressReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ReportCSV, mockReports.lastFormat)
}
