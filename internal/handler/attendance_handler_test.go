package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
)

type attendanceServiceMock struct {
	entries []dto.FinalAttendanceDto
	student *dto.StudentFinalAttendanceDto
	err     error
}

func (m *attendanceServiceMock) GetSessionFinalAttendance(ctx context.Context, sessionID string) ([]dto.FinalAttendanceDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *attendanceServiceMock) GetStudentFinalAttendance(ctx context.Context, sessionID, studentID string) (*dto.StudentFinalAttendanceDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

type exportServiceMock struct {
	payload     []byte
	contentType string
	err         error
}

func (m *exportServiceMock) RenderAttendanceSheet(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.payload, m.contentType, nil
}

func TestAttendanceHandlerSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &attendanceServiceMock{entries: []dto.FinalAttendanceDto{
		{StudentID: "stu-1", FullName: "Alice", Status: models.AttendanceStatusPresent},
	}}
	handler := NewAttendanceHandler(mock, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions/sess-1/attendance", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Session(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice")
}

func TestAttendanceHandlerSessionNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "session not found")}, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions/sess-ghost/attendance", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-ghost"}}

	handler.Session(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerStudentMissingParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{}, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions/sess-1/attendance/students/", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Student(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{}, &exportServiceMock{
		payload:     []byte("Student,Status\nAlice,PRESENT\n"),
		contentType: "text/csv",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions/sess-1/attendance/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=attendance-sess-1.csv", w.Header().Get("Content-Disposition"))
}
