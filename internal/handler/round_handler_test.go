package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
)

type roundServiceMock struct {
	calcResp  *dto.CalculateRoundAttendanceResponse
	calcErr   error
	calcGot   *dto.CalculateRoundAttendanceRequest
	result    *dto.RoundResultDto
	resultErr error
	resultGot string
}

func (m *roundServiceMock) CalculateRoundAttendance(ctx context.Context, req dto.CalculateRoundAttendanceRequest) (*dto.CalculateRoundAttendanceResponse, error) {
	m.calcGot = &req
	if m.calcErr != nil {
		return nil, m.calcErr
	}
	return m.calcResp, nil
}

func (m *roundServiceMock) GetRoundResult(ctx context.Context, roundID string) (*dto.RoundResultDto, error) {
	m.resultGot = roundID
	if m.resultErr != nil {
		return nil, m.resultErr
	}
	return m.result, nil
}

func TestRoundHandlerCalculateUsesPathParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &roundServiceMock{calcResp: &dto.CalculateRoundAttendanceResponse{Success: true, IsFinalRound: true}}
	handler := NewRoundHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CalculateRoundAttendanceRequest{SessionID: "sess-1"})
	req, _ := http.NewRequest(http.MethodPost, "/rounds/round-2/calculate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "round-2"}}

	handler.Calculate(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, mock.calcGot)
	assert.Equal(t, "round-2", mock.calcGot.RoundID)
	assert.Equal(t, "sess-1", mock.calcGot.SessionID)
}

func TestRoundHandlerCalculateRoundNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoundHandler(&roundServiceMock{calcErr: appErrors.Clone(appErrors.ErrNotFound, "round not found")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CalculateRoundAttendanceRequest{SessionID: "sess-1"})
	req, _ := http.NewRequest(http.MethodPost, "/rounds/round-ghost/calculate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "round-ghost"}}

	handler.Calculate(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoundHandlerResult(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &roundServiceMock{result: &dto.RoundResultDto{RoundID: "round-1", StudentsAttendance: []dto.StudentAttendanceDto{}}}
	handler := NewRoundHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rounds/round-1/result", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "round-1"}}

	handler.Result(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "round-1", mock.resultGot)
}

func TestRoundHandlerResultMissingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoundHandler(&roundServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rounds//result", nil)
	c.Request = req

	handler.Result(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
