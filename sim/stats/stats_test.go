package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ComputesMeanAndPositiveHalfWidth(t *testing.T) {
	values := []float64{1.0, 1.1, 0.9, 1.05, 0.95, 1.02, 0.98, 1.03, 0.97, 1.0}
	s, err := Summarize(values, 0.95)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, s.Mean, 0.02)
	assert.Greater(t, s.CIHalfWidth, 0.0)
	assert.Equal(t, 10, s.N)

	lower, upper := s.CI()
	assert.Less(t, lower, s.Mean)
	assert.Greater(t, upper, s.Mean)
}

func TestSummarize_RejectsFewerThanTwoValues(t *testing.T) {
	_, err := Summarize([]float64{1.0}, 0.95)
	assert.Error(t, err)
}

func TestTInvCDF_ConvergesToNormalQuantileForLargeDF(t *testing.T) {
	// For large df, the t critical value at p=0.975 should approach the
	// standard normal's 1.959964.
	got := tInvCDF(0.975, 10_000)
	assert.InDelta(t, 1.959964, got, 0.01)
}

func TestTInvCDF_IsOddAroundOneHalf(t *testing.T) {
	df := 15
	upper := tInvCDF(0.9, df)
	lower := tInvCDF(0.1, df)
	assert.InDelta(t, 0.0, upper+lower, 1e-9)
}

func TestTInvCDF_SmallDFExceedsNormalQuantile(t *testing.T) {
	// Student's t has heavier tails than the normal for small df, so its
	// critical value at a given p must be larger.
	normalApprox := tInvCDF(0.975, 10_000)
	smallDF := tInvCDF(0.975, 5)
	assert.Greater(t, smallDF, normalApprox)
}

func TestLossProbability_ZeroArrivalsTreatedAsOne(t *testing.T) {
	assert.Equal(t, 0.0, LossProbability(0, 0))
	assert.InDelta(t, 0.1, LossProbability(10, 100), 1e-9)
}

func TestLossProbability_NeverNaN(t *testing.T) {
	p := LossProbability(0, 0)
	assert.False(t, math.IsNaN(p))
}
