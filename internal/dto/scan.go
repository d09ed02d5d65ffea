package dto

import "time"

// NearbyDeviceDto is one observed peer in a scan submission.
type NearbyDeviceDto struct {
	DeviceID string `json:"device_id" validate:"required"`
	Rssi     int    `json:"rssi" validate:"lte=0"`
}

// SubmitScanDataRequest is the device-facing scan submission payload.
type SubmitScanDataRequest struct {
	RequestID       string            `json:"request_id" validate:"required"`
	DeviceID        string            `json:"device_id" validate:"required"`
	SubmitterUserID string            `json:"submitter_user_id" validate:"required"`
	SessionID       string            `json:"session_id" validate:"required"`
	RssiData        *int              `json:"rssi_data,omitempty" validate:"omitempty,lte=0"`
	NearbyDevices   []NearbyDeviceDto `json:"nearby_devices" validate:"dive"`
	Timestamp       time.Time         `json:"timestamp"`
}

// SubmitScanDataResponse is the synchronous acceptance acknowledgment.
// Round computation happens asynchronously after this returns.
type SubmitScanDataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CalculateRoundAttendanceRequest asks for a round's attendance to be
// computed. Publishing is asynchronous so the caller is never blocked on
// aggregation.
type CalculateRoundAttendanceRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	RoundID   string `json:"round_id" validate:"required"`
}

// CalculateRoundAttendanceResponse acknowledges the calculation request.
type CalculateRoundAttendanceResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	IsFinalRound bool   `json:"is_final_round"`
}
