package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScannedDevice is one peer observed by a submitting device.
type ScannedDevice struct {
	DeviceID string `json:"device_id"`
	Rssi     int    `json:"rssi"`
}

// ScannedDeviceList is stored as a JSONB column on scan logs.
type ScannedDeviceList []ScannedDevice

// Value implements driver.Valuer.
func (l ScannedDeviceList) Value() (driver.Value, error) {
	if l == nil {
		l = ScannedDeviceList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *ScannedDeviceList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = ScannedDeviceList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported scanned device list source %T", src)
	}
}

// ScanLog is one raw, append-only ingestion record per scan submission.
// Rows are never mutated after creation and feed audit and recomputation.
type ScanLog struct {
	ID              string            `db:"id" json:"id"`
	RequestID       string            `db:"request_id" json:"request_id"`
	DeviceID        string            `db:"device_id" json:"device_id"`
	SubmitterUserID string            `db:"submitter_user_id" json:"submitter_user_id"`
	SessionID       string            `db:"session_id" json:"session_id"`
	Rssi            *int              `db:"rssi" json:"rssi,omitempty"`
	ScannedDevices  ScannedDeviceList `db:"scanned_devices" json:"scanned_devices"`
	Timestamp       time.Time         `db:"timestamp" json:"timestamp"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}
