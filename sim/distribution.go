package sim

import (
	"math"
	"math/rand"
)

// Distribution is a closed sum type over the samplers the network engine
// needs for arrivals and service times: Exponential, Uniform, and Bounded
// Pareto. Dispatch happens once per sample, avoiding a heap-allocated trait
// object in the hot path.
type Distribution interface {
	// Sample draws a single nonnegative real from the distribution.
	Sample(rng *rand.Rand) float64
}

// Exponential is a rate-mu exponential distribution (mu > 0), sampled via
// inverse-CDF on U in (0, 1).
type Exponential struct {
	Mu float64
}

// NewExponential validates mu and returns an Exponential sampler.
func NewExponential(mu float64) (Exponential, error) {
	if mu <= 0 {
		return Exponential{}, NewConfigError("exponential distribution requires mu > 0, got %v", mu)
	}
	return Exponential{Mu: mu}, nil
}

// Sample implements Distribution.
func (e Exponential) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return -math.Log(u) / e.Mu
}

// Uniform is a uniform distribution on [A, B], A <= B.
type Uniform struct {
	A, B float64
}

// NewUniform validates a <= b and returns a Uniform sampler.
func NewUniform(a, b float64) (Uniform, error) {
	if a > b {
		return Uniform{}, NewConfigError("uniform distribution requires a <= b, got a=%v b=%v", a, b)
	}
	return Uniform{A: a, B: b}, nil
}

// Sample implements Distribution.
func (u Uniform) Sample(rng *rand.Rand) float64 {
	return u.A + rng.Float64()*(u.B-u.A)
}

// BoundedPareto is a bounded Pareto distribution with shape parameter alpha,
// lower bound k, and upper bound p (k > 0, p > k, alpha > 0). The normalizer
// C = k^alpha / (1 - (k/p)^alpha) is precomputed at construction.
type BoundedPareto struct {
	K, P, Alpha float64
	c           float64
}

// NewBoundedPareto validates parameters and precomputes the normalizer.
func NewBoundedPareto(k, p, alpha float64) (BoundedPareto, error) {
	if k <= 0 {
		return BoundedPareto{}, NewConfigError("bounded pareto requires k > 0, got %v", k)
	}
	if p <= k {
		return BoundedPareto{}, NewConfigError("bounded pareto requires p > k, got k=%v p=%v", k, p)
	}
	if alpha <= 0 {
		return BoundedPareto{}, NewConfigError("bounded pareto requires alpha > 0, got %v", alpha)
	}
	c := math.Pow(k, alpha) / (1 - math.Pow(k/p, alpha))
	return BoundedPareto{K: k, P: p, Alpha: alpha, c: c}, nil
}

// Sample implements Distribution using the standard bounded inverse-CDF:
//
//	x = ( -(U*p^alpha - U*k^alpha - p^alpha) / (p^alpha * k^alpha) ) ^ (-1/alpha)
//
// derived from C = k^alpha / (1 - (k/p)^alpha) and F(x) = (1 - (k/x)^alpha) / (1 - (k/p)^alpha).
func (bp BoundedPareto) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	kAlpha := math.Pow(bp.K, bp.Alpha)
	pAlpha := math.Pow(bp.P, bp.Alpha)
	num := -(u*pAlpha - u*kAlpha - pAlpha)
	denom := pAlpha * kAlpha
	return math.Pow(num/denom, -1/bp.Alpha)
}
