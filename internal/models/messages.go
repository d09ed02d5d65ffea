package models

import "time"

// Queue message types.
const (
	MessageTypeProcessScan     = "process_scan_data"
	MessageTypeCalculateRound  = "calculate_round_attendance"
	MessageTypeFinalizeSession = "finalize_session_attendance"
)

// ProcessScanDataMessage is the asynchronous event consumed by the
// consensus engine. Delivery is at least once; consumers recompute rather
// than increment, so duplicates are harmless.
type ProcessScanDataMessage struct {
	RequestID       string          `json:"request_id"`
	DeviceID        string          `json:"device_id"`
	SubmitterUserID string          `json:"submitter_user_id"`
	SessionID       string          `json:"session_id"`
	RoundID         string          `json:"round_id,omitempty"`
	ScannedDevices  []ScannedDevice `json:"scanned_devices"`
	Timestamp       time.Time       `json:"timestamp"`
}

// CalculateRoundAttendanceMessage decouples "a round ended" from
// "attendance was computed". IsFinalRound triggers cross-round aggregation.
type CalculateRoundAttendanceMessage struct {
	SessionID    string `json:"session_id"`
	RoundID      string `json:"round_id"`
	RoundNumber  int    `json:"round_number"`
	TotalRounds  int    `json:"total_rounds"`
	IsFinalRound bool   `json:"is_final_round"`
}

// SessionFinalAttendanceToProcess triggers the terminal aggregation for a
// session once its last round has been calculated.
type SessionFinalAttendanceToProcess struct {
	SessionID         string    `json:"session_id"`
	ActualRoundsCount int       `json:"actual_rounds_count"`
	Timestamp         time.Time `json:"timestamp"`
}
