package sim

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/queuesim/queuesim/sim/trace"
)

// QueueSystem owns a set of servers, the exogenous arrival distribution, and
// the routing matrix between them. It drives the time-advance loop described
// in the network engine and accumulates time-averaged statistics across a
// single sim() call.
type QueueSystem struct {
	servers []Server
	arrival Distribution
	routing RoutingMatrix

	rng *rand.Rand

	// Post-run readable fields.
	T             float64
	ResponseTimes []float64
	EventLog      *trace.EventLog
}

// RunResult is the (mean_N, mean_T) pair returned by Sim.
type RunResult struct {
	MeanN float64
	MeanT float64
}

// NewQueueSystem validates servers and routing, then constructs a
// QueueSystem. Pass nil rows for strict tandem routing. Validation of the
// routing matrix -- row count, row length, row sums -- happens here, before
// any RNG draw, per the ConfigError contract. Buffer capacities are
// validated earlier, by each policy's constructor.
func NewQueueSystem(servers []Server, arrival Distribution, routingRows [][]float64) (*QueueSystem, error) {
	if len(servers) == 0 {
		return nil, NewConfigError("queue system requires at least one server")
	}
	matrix, err := NewRoutingMatrix(len(servers), routingRows)
	if err != nil {
		return nil, err
	}
	return &QueueSystem{
		servers: servers,
		arrival: arrival,
		routing: matrix,
	}, nil
}

// AddServer appends a server to the network and widens the routing matrix
// to strict tandem over the new server count. Callers that need a custom
// matrix over the new topology must call UpdateRoutingMatrix afterward.
func (q *QueueSystem) AddServer(s Server) {
	q.servers = append(q.servers, s)
	q.routing = RoutingMatrix{n: len(q.servers)}
}

// UpdateRoutingMatrix replaces the routing matrix, validating it against the
// current server count.
func (q *QueueSystem) UpdateRoutingMatrix(rows [][]float64) error {
	matrix, err := NewRoutingMatrix(len(q.servers), rows)
	if err != nil {
		return err
	}
	q.routing = matrix
	return nil
}

// Servers returns the network's servers in index order. Used by callers that
// need to read per-server counters after a run; per §9, the system borrows
// each server mutably only inside Sim/Replicate.
func (q *QueueSystem) Servers() []Server {
	return q.servers
}

// Clone returns a write-private QueueSystem for one replication worker: a
// deep copy of each server's blueprint (structural parameters, no dynamic
// state) sharing the same arrival distribution and routing matrix, both of
// which are immutable values safe to read from multiple goroutines.
func (q *QueueSystem) Clone() *QueueSystem {
	clones := make([]Server, len(q.servers))
	for i, s := range q.servers {
		clones[i] = s.Clone()
	}
	return &QueueSystem{
		servers: clones,
		arrival: q.arrival,
		routing: q.routing,
	}
}

// SimOptions configures a single measurement run. The zero values of Warmup
// and the tracking flags match the spec's defaults. NumEvents has no
// implicit default: a zero value runs no events (DefaultSimOptions sets
// 10^6). Seed has none either: a literal 0 is a valid, deterministic seed
// like any other, so callers that want the "seed = auto" default described
// in the external interface must call RandomSeed() themselves.
type SimOptions struct {
	NumEvents          int64
	Seed               uint64
	Warmup             int64
	TrackResponseTimes bool
	TrackEvents        bool
}

// DefaultSimOptions returns the spec's default options (10^6 events, no
// warmup, no tracking). Seed must still be set by the caller.
func DefaultSimOptions() SimOptions {
	return SimOptions{NumEvents: 1_000_000}
}

// RandomSeed derives a seed from the current time, for callers that want the
// "seed = auto" default rather than a reproducible fixed seed. Sim and
// replicate.Run always take an explicit seed; callers (the cmd package's
// run/replicate subcommands) call RandomSeed once and log the result, so a
// run can still be reproduced later from the logged value.
func RandomSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Sim runs the network engine to completion of opts.NumEvents measured
// network exits or mid-network rejections (rejected external arrivals do
// not count), returning (mean_N, mean_T). It resets every server before
// running. RNG draws only begin after validation (NewQueueSystem's, then
// Sim's own re-check of the routing matrix shape) has already succeeded.
func (q *QueueSystem) Sim(opts SimOptions) (RunResult, error) {
	if err := q.validate(); err != nil {
		return RunResult{}, err
	}

	q.rng = rand.New(rand.NewSource(int64(opts.Seed)))
	for _, s := range q.servers {
		s.BindRNG(q.rng)
		s.Reset()
	}

	q.T = 0
	q.ResponseTimes = nil
	q.EventLog = nil
	if opts.TrackResponseTimes {
		q.ResponseTimes = make([]float64, 0, opts.NumEvents)
	}
	if opts.TrackEvents {
		q.EventLog = trace.NewEventLog(2 * int(opts.NumEvents))
	}

	eng := &engine{
		sys:   q,
		ttna:  q.arrival.Sample(q.rng),
		clock: 0,
	}

	if opts.Warmup > 0 {
		eng.run(opts.Warmup, nil, false)
		for _, s := range q.servers {
			s.ResetLossCounters()
		}
	}

	var onResponseTime func(float64)
	if opts.TrackResponseTimes {
		onResponseTime = func(rt float64) {
			q.ResponseTimes = append(q.ResponseTimes, rt)
		}
	}

	areaN, numCompletions, measuredClock := eng.run(opts.NumEvents, onResponseTime, true)

	meanN := 0.0
	if measuredClock > 0 {
		meanN = areaN / measuredClock
	}
	meanT := areaN / float64(max64(1, numCompletions))
	q.T = meanT

	logrus.Debugf("sim: %d servers, %d completions, mean_N=%.4f mean_T=%.4f", len(q.servers), numCompletions, meanN, meanT)
	return RunResult{MeanN: meanN, MeanT: meanT}, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// validate re-checks the stored routing matrix shape against the current
// server count; AddServer can widen the server list after a matrix was set.
func (q *QueueSystem) validate() error {
	if len(q.servers) == 0 {
		return NewConfigError("queue system requires at least one server")
	}
	if q.routing.n != len(q.servers) {
		return NewConfigError("routing matrix sized for %d servers, but system has %d", q.routing.n, len(q.servers))
	}
	return nil
}

// engine drives one measurement-or-warmup pass of the time-advance loop
// described in the network engine design. It is a plain value, not exported:
// a fresh one is constructed per Sim call, but it shares state across the
// warmup and measurement phases so ttna carries over without resampling.
type engine struct {
	sys        *QueueSystem
	ttna       float64
	clock      float64
	stateTotal int
}

// run advances the engine until numEvents network exits or mid-network
// rejections have occurred (a rejected external arrival does not count),
// accumulating
// area_n when accumulate is true. It returns (area_n, num_completions,
// elapsed_clock) for the phase just run. onCompletion, if non-nil, is
// invoked with each completed job's response time.
func (e *engine) run(numEvents int64, onCompletion func(float64), accumulate bool) (float64, int64, float64) {
	q := e.sys
	servers := q.servers
	var areaN float64
	var numCompletions int64
	startClock := e.clock

	var eventLog *trace.EventLog
	if accumulate {
		eventLog = q.EventLog
	}

	completed := make([]int, 0, len(servers))
	for numCompletions < numEvents {
		ttncNet := PositiveInfinity
		for _, s := range servers {
			if t := s.QueryTTNC(); t < ttncNet {
				ttncNet = t
			}
		}

		dt := ttncNet
		if e.ttna < dt {
			dt = e.ttna
		}

		e.clock += dt
		if accumulate {
			areaN += float64(e.stateTotal) * dt
		}

		// Step 4: every server absorbs dt before any routing happens, so a
		// job routed from one completion can never be mistaken for having
		// received service time it did not have.
		completed = completed[:0]
		for i, s := range servers {
			if s.Update(dt) {
				completed = append(completed, i)
			}
		}

		// Step 5: route each completed job.
		for _, i := range completed {
			numCompletions += e.routeCompletion(i, servers[i], eventLog, onCompletion, accumulate)
		}

		if e.ttna <= ttncNet {
			e.admitExternalArrival(servers[0], eventLog, accumulate)
			e.ttna = q.arrival.Sample(q.rng)
		} else {
			e.ttna -= dt
		}
	}

	return areaN, numCompletions, e.clock - startClock
}

// routeCompletion handles one completed job at server i per §4.2 step 5:
// draw a destination via the routing matrix, and either record a departure,
// admit the job at the destination, or reject it if the destination's
// buffer is full. Returns 1 if this counts toward num_completions (exit or
// mid-network rejection both count, per the documented open question).
func (e *engine) routeCompletion(i int, s Server, eventLog *trace.EventLog, onCompletion func(float64), accumulate bool) int64 {
	q := e.sys
	j := q.routing.RouteJob(q.rng, i)

	if j == q.routing.Exit() {
		e.stateTotal--
		if onCompletion != nil {
			onCompletion(s.LastResponseTime())
		}
		if accumulate && eventLog != nil {
			eventLog.RecordDeparture(e.clock, i, e.stateTotal)
		}
		return 1
	}

	dest := q.servers[j]
	dest.IncrementArrivals()
	if dest.IsFull() {
		dest.IncrementRejected()
		e.stateTotal--
		if accumulate && eventLog != nil {
			eventLog.RecordRejection(e.clock, i, j, e.stateTotal)
		}
		return 1
	}

	dest.Arrival()
	if accumulate && eventLog != nil {
		eventLog.RecordRoute(e.clock, i, j, e.stateTotal)
	}
	return 0
}

// admitExternalArrival handles §4.2 step 6: an external arrival fires at
// server 0. Unlike a completion (step 5), neither admission nor rejection of
// an external arrival counts toward num_completions -- the loop terminates
// on exits and mid-network losses only.
func (e *engine) admitExternalArrival(first Server, eventLog *trace.EventLog, accumulate bool) {
	first.IncrementArrivals()
	if first.IsFull() {
		first.IncrementRejected()
		if accumulate && eventLog != nil {
			eventLog.RecordRejection(e.clock, trace.External, 0, e.stateTotal)
		}
		return
	}
	e.stateTotal++
	first.Arrival()
	if accumulate && eventLog != nil {
		eventLog.RecordArrival(e.clock, e.stateTotal)
	}
}
