package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/response"
)

type attendanceService interface {
	GetSessionFinalAttendance(ctx context.Context, sessionID string) ([]dto.FinalAttendanceDto, error)
	GetStudentFinalAttendance(ctx context.Context, sessionID, studentID string) (*dto.StudentFinalAttendanceDto, error)
}

type exportService interface {
	RenderAttendanceSheet(ctx context.Context, sessionID, format string) ([]byte, string, error)
}

// AttendanceHandler exposes session-level attendance queries and exports.
type AttendanceHandler struct {
	service  attendanceService
	exporter exportService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService, exporter exportService) *AttendanceHandler {
	return &AttendanceHandler{service: service, exporter: exporter}
}

// Session godoc
// @Summary Final attendance for every enrolled student
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance [get]
func (h *AttendanceHandler) Session(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id is required"))
		return
	}
	entries, err := h.service.GetSessionFinalAttendance(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Student godoc
// @Summary One student's final attendance with per-round breakdown
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance/students/{studentId} [get]
func (h *AttendanceHandler) Student(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sessionID := strings.TrimSpace(c.Param("id"))
	studentID := strings.TrimSpace(c.Param("studentId"))
	if sessionID == "" || studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id and student id are required"))
		return
	}
	result, err := h.service.GetStudentFinalAttendance(c.Request.Context(), sessionID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the session attendance sheet
// @Tags Attendance
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Router /sessions/{id}/attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id is required"))
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	payload, contentType, err := h.exporter.RenderAttendanceSheet(c.Request.Context(), sessionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "pdf"
	if contentType == "text/csv" {
		ext = "csv"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-%s.%s", sessionID, ext))
	c.Data(http.StatusOK, contentType, payload)
}
