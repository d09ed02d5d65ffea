package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/response"
)

type scanService interface {
	SubmitScanData(ctx context.Context, req dto.SubmitScanDataRequest) (*dto.SubmitScanDataResponse, error)
}

// ScanHandler wires the scan ingestion gateway to HTTP.
type ScanHandler struct {
	service scanService
}

// NewScanHandler constructs the handler.
func NewScanHandler(service scanService) *ScanHandler {
	return &ScanHandler{service: service}
}

// Submit godoc
// @Summary Submit a BLE scan report
// @Tags Scans
// @Accept json
// @Produce json
// @Param payload body dto.SubmitScanDataRequest true "Scan report"
// @Success 202 {object} response.Envelope
// @Router /scans [post]
func (h *ScanHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.SubmitScanDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed scan payload"))
		return
	}
	resp, err := h.service.SubmitScanData(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}
