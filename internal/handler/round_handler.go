package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/response"
)

type roundService interface {
	CalculateRoundAttendance(ctx context.Context, req dto.CalculateRoundAttendanceRequest) (*dto.CalculateRoundAttendanceResponse, error)
	GetRoundResult(ctx context.Context, roundID string) (*dto.RoundResultDto, error)
}

// RoundHandler exposes round calculation and round results.
type RoundHandler struct {
	service roundService
}

// NewRoundHandler constructs the handler.
func NewRoundHandler(service roundService) *RoundHandler {
	return &RoundHandler{service: service}
}

// Calculate godoc
// @Summary Request a round's attendance calculation
// @Tags Rounds
// @Accept json
// @Produce json
// @Param id path string true "Round ID"
// @Param payload body dto.CalculateRoundAttendanceRequest true "Calculation request"
// @Success 202 {object} response.Envelope
// @Router /rounds/{id}/calculate [post]
func (h *RoundHandler) Calculate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.CalculateRoundAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed calculation payload"))
		return
	}
	req.RoundID = strings.TrimSpace(c.Param("id"))
	resp, err := h.service.CalculateRoundAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}

// Result godoc
// @Summary Read a round's attendance result
// @Tags Rounds
// @Produce json
// @Param id path string true "Round ID"
// @Success 200 {object} response.Envelope
// @Router /rounds/{id}/result [get]
func (h *RoundHandler) Result(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	roundID := strings.TrimSpace(c.Param("id"))
	if roundID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "round id is required"))
		return
	}
	result, err := h.service.GetRoundResult(c.Request.Context(), roundID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
