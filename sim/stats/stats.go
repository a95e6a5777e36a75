// Package stats turns raw per-replication outputs into time-averaged
// summary statistics and confidence intervals.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/queuesim/queuesim/sim"
)

// Summary is the aggregated result of many independent replications of one
// quantity (E[N] or E[T]).
type Summary struct {
	Mean            float64
	StdDev          float64
	N               int
	ConfidenceLevel float64
	CIHalfWidth     float64
}

// CI returns the (lower, upper) confidence interval bounds.
func (s Summary) CI() (float64, float64) {
	return s.Mean - s.CIHalfWidth, s.Mean + s.CIHalfWidth
}

// Summarize computes mean, sample standard deviation (divisor n-1, via
// gonum/stat), and the symmetric t-interval half-width for confidence
// (e.g. 0.95) from raw per-replication values. Requires len(values) >= 2.
func Summarize(values []float64, confidence float64) (Summary, error) {
	n := len(values)
	if n < 2 {
		return Summary{}, sim.NewConfigError("summarize requires at least 2 replications, got %d", n)
	}
	mean, stdDev := stat.MeanStdDev(values, nil)
	alpha := 1.0 - confidence
	tCrit := tInvCDF(1.0-alpha/2.0, n-1)
	halfWidth := tCrit * stdDev / math.Sqrt(float64(n))
	return Summary{
		Mean:            mean,
		StdDev:          stdDev,
		N:               n,
		ConfidenceLevel: confidence,
		CIHalfWidth:     halfWidth,
	}, nil
}

// LossProbability is num_rejected / max(1, num_arrivals), measured on the
// run's measurement phase only (callers pass post-warmup counters).
func LossProbability(numRejected, numArrivals int64) float64 {
	denom := numArrivals
	if denom < 1 {
		denom = 1
	}
	return float64(numRejected) / float64(denom)
}

// tInvCDF returns t such that P(T <= t) = p for a Student's t distribution
// with df degrees of freedom, via the normal quantile (Abramowitz & Stegun
// 26.2.23) corrected toward the t distribution by Hill's (1970) asymptotic
// expansion. The normal-quantile step alone is off by up to about 4.5e-4,
// so the relative error is about 2e-4 for df >= 5 -- well inside the
// spec's 0.5% coverage requirement at n >= 10. At very small df the
// expansion loses accuracy (about 11% low at df = 1). No external statistics
// library implements this rational approximation directly, so it is
// hand-rolled here rather than pulled from gonum (gonum/stat exposes
// distributions but not an inverse-t-CDF).
func tInvCDF(p float64, df int) float64 {
	if p < 0.5 {
		return -tInvCDF(1.0-p, df)
	}

	a := math.Sqrt(-2.0 * math.Log(1.0-p))
	zp := a - (2.515517+0.802853*a+0.010328*a*a)/
		(1.0+1.432788*a+0.189269*a*a+0.001308*a*a*a)

	d := float64(df)
	g1 := (zp*zp*zp + zp) / 4.0
	g2 := (5*math.Pow(zp, 5) + 16*math.Pow(zp, 3) + 3*zp) / 96.0
	g3 := (3*math.Pow(zp, 7) + 19*math.Pow(zp, 5) + 17*math.Pow(zp, 3) - 15*zp) / 384.0
	g4 := (79*math.Pow(zp, 9) + 776*math.Pow(zp, 7) + 1482*math.Pow(zp, 5) -
		1920*math.Pow(zp, 3) - 945*zp) / 92160.0

	return zp + g1/d + g2/(d*d) + g3/(d*d*d) + g4/(d*d*d*d)
}
