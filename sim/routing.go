package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// rowSumTolerance is the allowed deviation of a routing matrix row's sum
// from 1, per spec: row sums outside [1-1e-9, 1+1e-9] are a validation error.
const rowSumTolerance = 1e-9

// RoutingMatrix is a dense row-stochastic matrix of shape n x (n+1): row i
// gives the probability that a job completing at server i is routed to
// server j (j == n means exit). An empty matrix means "strict tandem": each
// server forwards to index+1, the last server exits.
type RoutingMatrix struct {
	rows [][]float64 // nil means strict tandem
	n    int
}

// NewRoutingMatrix validates and constructs a RoutingMatrix for n servers.
// Pass a nil or empty rows slice for strict tandem routing. Each row must
// have length n+1, nonnegative entries, and sum to 1 within 1e-9.
func NewRoutingMatrix(n int, rows [][]float64) (RoutingMatrix, error) {
	if len(rows) == 0 {
		return RoutingMatrix{rows: nil, n: n}, nil
	}
	if len(rows) != n {
		return RoutingMatrix{}, NewConfigError("routing matrix must have %d rows, got %d", n, len(rows))
	}
	for i, row := range rows {
		if len(row) != n+1 {
			return RoutingMatrix{}, NewConfigError("routing matrix row %d must have length %d, got %d", i, n+1, len(row))
		}
		sum := 0.0
		for j, p := range row {
			if p < 0 {
				return RoutingMatrix{}, NewConfigError("routing matrix row %d has negative entry at column %d: %v", i, j, p)
			}
			sum += p
		}
		if sum < 1-rowSumTolerance || sum > 1+rowSumTolerance {
			return RoutingMatrix{}, NewConfigError("routing matrix row %d sums to %v, must be within 1e-9 of 1", i, sum)
		}
	}
	copied := make([][]float64, len(rows))
	for i, row := range rows {
		copied[i] = append([]float64(nil), row...)
	}
	return RoutingMatrix{rows: copied, n: n}, nil
}

// IsTandem reports whether this matrix is the empty/strict-tandem case.
func (m RoutingMatrix) IsTandem() bool {
	return m.rows == nil
}

// RouteJob draws one uniform from rng and returns the destination server
// index for a job completing at server i, or n (Exit) to leave the network.
// In strict tandem mode this is deterministic: i+1, or Exit if i is the
// last server. Underflow (the accumulated prefix never strictly exceeds the
// draw, possible at an exact row sum of 1 with floating-point rounding)
// routes to Exit.
func (m RoutingMatrix) RouteJob(rng *rand.Rand, i int) int {
	if m.IsTandem() {
		if i+1 >= m.n {
			return m.n
		}
		return i + 1
	}
	u := rng.Float64()
	cumulative := 0.0
	row := m.rows[i]
	for j, p := range row {
		cumulative += p
		if cumulative > u {
			return j
		}
	}
	// Row sums to 1 within rowSumTolerance, but floating-point rounding can
	// still leave the cumulative prefix short of a draw this close to 1.
	// Non-fatal: default to Exit and note it, rather than panicking mid-run.
	logrus.WithFields(logrus.Fields{
		"server":     i,
		"draw":       u,
		"cumulative": cumulative,
	}).Debug("routing draw exceeded cumulative row sum, defaulting to exit")
	return m.n
}

// Exit returns the sentinel destination index meaning "leaves the network".
func (m RoutingMatrix) Exit() int {
	return m.n
}
