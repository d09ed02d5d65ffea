// Package proximity converts BLE signal strength into distance estimates
// using a log-distance path-loss model.
package proximity

import "math"

// Params carries the calibration constants for the path-loss model.
type Params struct {
	// RefRssi is the measured RSSI at one meter, in dBm.
	RefRssi int
	// PathLossExponent is the environment's path-loss exponent N.
	PathLossExponent float64
	// RssiThreshold is the weakest RSSI that still qualifies as a
	// proximity detection.
	RssiThreshold int
}

// DefaultParams returns indoor calibration defaults.
func DefaultParams() Params {
	return Params{RefRssi: -59, PathLossExponent: 2.0, RssiThreshold: -70}
}

// EstimateDistance returns the estimated distance in meters for the given
// RSSI. Signals at or above the one-meter reference clamp to 1.0 since the
// model cannot resolve anything closer than its calibration point. The
// result is monotone: a stronger signal never yields a larger distance.
func (p Params) EstimateDistance(rssi int) float64 {
	if rssi >= p.RefRssi {
		return 1.0
	}
	n := p.PathLossExponent
	if n <= 0 {
		n = 2.0
	}
	return math.Pow(10, float64(p.RefRssi-rssi)/(10*n))
}

// Qualifies reports whether the RSSI is strong enough to count as a
// proximity detection.
func (p Params) Qualifies(rssi int) bool {
	return rssi >= p.RssiThreshold
}
