// Package policy implements the four scheduling policies the network
// engine drives through the sim.Server contract: FCFS, SRPT, PS, and FB.
package policy

import (
	"math/rand"

	"github.com/queuesim/queuesim/sim"
)

// base holds the counters and fields common to every policy, mirroring the
// fields spec.md §3 lists as "observed by the engine". Each policy embeds
// base and is responsible for keeping its state field in sync with its own
// queueing structures.
type base struct {
	rng              *rand.Rand
	clock            float64
	state            int
	ttnc             float64
	numCompletions   int64
	numArrivals      int64
	numRejected      int64
	numServers       int
	bufferCapacity   int
	lastResponseTime float64
	sumResponseTime  float64
}

func newBase(numServers, bufferCapacity int) base {
	return base{numServers: numServers, bufferCapacity: bufferCapacity}
}

func (b *base) resetCounters() {
	b.clock = 0
	b.state = 0
	b.ttnc = sim.PositiveInfinity
	b.numCompletions = 0
	b.numArrivals = 0
	b.numRejected = 0
	b.lastResponseTime = 0
	b.sumResponseTime = 0
}

func (b *base) BindRNG(rng *rand.Rand) { b.rng = rng }

func (b *base) State() int { return b.state }

func (b *base) IsFull() bool { return sim.IsFullState(b.state, b.bufferCapacity) }

func (b *base) Clock() float64 { return b.clock }

func (b *base) NumCompletions() int64 { return b.numCompletions }

func (b *base) NumArrivals() int64 { return b.numArrivals }

func (b *base) NumRejected() int64 { return b.numRejected }

func (b *base) IncrementArrivals() { b.numArrivals++ }

func (b *base) IncrementRejected() { b.numRejected++ }

func (b *base) ResetLossCounters() {
	b.numArrivals = 0
	b.numRejected = 0
}

func (b *base) LastResponseTime() float64 { return b.lastResponseTime }

func (b *base) MeanResponseTime() float64 {
	if b.numCompletions == 0 {
		return 0
	}
	return b.sumResponseTime / float64(b.numCompletions)
}

func (b *base) NumServers() int { return b.numServers }

func (b *base) BufferCapacity() int { return b.bufferCapacity }

// recordCompletion folds one completed job's response time into the
// running counters. Every policy calls this exactly once per completion,
// right before returning true from Update.
func (b *base) recordCompletion(responseTime float64) {
	b.numCompletions++
	b.lastResponseTime = responseTime
	b.sumResponseTime += responseTime
}

// feTolerance is the floating-point epsilon every policy uses as its
// single-horizon completion trigger (remaining/ttnc <= feTolerance rather
// than an exact-zero test), and the value FB additionally uses to equate
// attained service values in its active-set computation. It is load-bearing
// and kept fixed for determinism, per spec.md §4.1.
const feTolerance = 1e-12
