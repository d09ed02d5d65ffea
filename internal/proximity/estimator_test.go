package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateDistanceClampsAtReference(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 1.0, p.EstimateDistance(p.RefRssi))
	assert.Equal(t, 1.0, p.EstimateDistance(p.RefRssi+10))
	assert.Equal(t, 1.0, p.EstimateDistance(0))
}

func TestEstimateDistanceKnownPoints(t *testing.T) {
	p := Params{RefRssi: -59, PathLossExponent: 2.0}

	// 10 dB of extra loss at N=2 is one decade of distance.
	assert.InDelta(t, 10.0, p.EstimateDistance(-79), 1e-9)
	assert.InDelta(t, 100.0, p.EstimateDistance(-99), 1e-9)
	assert.InDelta(t, 3.1623, p.EstimateDistance(-69), 1e-3)
}

func TestEstimateDistanceMonotonic(t *testing.T) {
	p := DefaultParams()

	prev := p.EstimateDistance(-120)
	for rssi := -119; rssi <= 0; rssi++ {
		d := p.EstimateDistance(rssi)
		require.LessOrEqual(t, d, prev, "distance must not grow with stronger signal, rssi=%d", rssi)
		prev = d
	}
}

func TestEstimateDistanceBadExponentFallsBack(t *testing.T) {
	p := Params{RefRssi: -59, PathLossExponent: 0}

	assert.InDelta(t, 10.0, p.EstimateDistance(-79), 1e-9)
}

func TestQualifies(t *testing.T) {
	p := Params{RssiThreshold: -70}

	assert.True(t, p.Qualifies(-70))
	assert.True(t, p.Qualifies(-55))
	assert.False(t, p.Qualifies(-71))
	assert.False(t, p.Qualifies(-90))
}
