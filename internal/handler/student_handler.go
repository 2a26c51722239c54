package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubright/gamesync-api/internal/models"
	"github.com/edubright/gamesync-api/internal/service"
	"github.com/edubright/gamesync-api/pkg/response"
)

type studentService interface {
	ActionPlans(ctx context.Context, studentID string) ([]models.ActionPlan, error)
}

type reportService interface {
	Build(ctx context.Context, studentID string, format service.ReportFormat) (*service.Report, error)
}

// StudentHandler exposes the student projections this subsystem owns.
type StudentHandler struct {
	students studentService
	reports  reportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, reports reportService) *StudentHandler {
	return &StudentHandler{students: students, reports: reports}
}

// ActionPlans godoc
// @Summary List a student's action plans
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/action-plans [get]
func (h *StudentHandler) ActionPlans(c *gin.Context) {
	plans, err := h.students.ActionPlans(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// ProgressReport godoc
// @Summary Export a student's progress report
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{id}/progress-report [get]
func (h *StudentHandler) ProgressReport(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	report, err := h.reports.Build(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
