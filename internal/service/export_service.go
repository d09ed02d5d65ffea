package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/export"
)

type finalAttendanceReader interface {
	GetSessionFinalAttendance(ctx context.Context, sessionID string) ([]dto.FinalAttendanceDto, error)
}

// ExportService renders a session's final attendance sheet as CSV or PDF.
type ExportService struct {
	attendance finalAttendanceReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs the exporter.
func NewExportService(attendance finalAttendanceReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// RenderAttendanceSheet produces the export bytes and content type for the
// requested format.
func (s *ExportService) RenderAttendanceSheet(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	entries, err := s.attendance.GetSessionFinalAttendance(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Student", "Attended", "Missed", "Percentage", "Status"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, e := range entries {
		data.Rows = append(data.Rows, map[string]string{
			"Student":    e.FullName,
			"Attended":   strconv.Itoa(e.AttendedRoundsCount),
			"Missed":     strconv.Itoa(e.MissedRoundsCount),
			"Percentage": fmt.Sprintf("%.1f%%", e.AttendancePercent),
			"Status":     string(e.Status),
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return payload, "text/csv", nil
	case "", "pdf":
		payload, err := s.pdf.Render(data, fmt.Sprintf("Attendance %s", sessionID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
