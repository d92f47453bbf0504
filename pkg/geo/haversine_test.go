package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSamePoint(t *testing.T) {
	assert.Zero(t, Distance(12.9716, 77.5946, 12.9716, 77.5946))
}

func TestDistanceSymmetry(t *testing.T) {
	d1 := Distance(12.9716, 77.5946, 12.9735, 77.5946)
	d2 := Distance(12.9735, 77.5946, 12.9716, 77.5946)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKnownValue(t *testing.T) {
	// ~0.0019 degrees of latitude is roughly 211 m.
	d := Distance(12.9716, 77.5946, 12.9735, 77.5946)
	assert.InDelta(t, 211, d, 5)
}

func TestDistanceNonFiniteInputs(t *testing.T) {
	assert.True(t, math.IsInf(Distance(math.NaN(), 77.5946, 12.9716, 77.5946), 1))
	assert.True(t, math.IsInf(Distance(12.9716, math.Inf(1), 12.9716, 77.5946), 1))
}

func TestWithinRange(t *testing.T) {
	// User at the venue itself.
	assert.True(t, WithinRange(12.9716, 77.5946, 12.9716, 77.5946, DefaultRadiusMeters))

	// ~200m away is outside the default 100m radius.
	assert.False(t, WithinRange(12.9735, 77.5946, 12.9716, 77.5946, DefaultRadiusMeters))

	// Same point is still inside with a wider radius.
	assert.True(t, WithinRange(12.9735, 77.5946, 12.9716, 77.5946, 300))
}

func TestWithinRangeZeroCoordinatesAreValid(t *testing.T) {
	assert.True(t, WithinRange(0, 0, 0, 0, DefaultRadiusMeters))
}

func TestWithinRangeDefaultsRadius(t *testing.T) {
	assert.True(t, WithinRange(12.9716, 77.5946, 12.9716, 77.5946, 0))
	assert.False(t, WithinRange(math.NaN(), 77.5946, 12.9716, 77.5946, 0))
}
