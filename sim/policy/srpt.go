package policy

import (
	"container/heap"

	"github.com/queuesim/queuesim/sim"
)

// srptJob is one waiting job in SRPT's min-ordered collection: remaining
// service time and the clock at which it arrived. seq breaks ties between
// equal remaining times deterministically (insertion order).
type srptJob struct {
	remaining   float64
	arrivalTime float64
	seq         int64
}

// srptHeap is a container/heap min-heap ordered first on remaining, then
// on seq for a deterministic tie-break.
type srptHeap []srptJob

func (h srptHeap) Len() int { return len(h) }
func (h srptHeap) Less(i, j int) bool {
	if h[i].remaining != h[j].remaining {
		return h[i].remaining < h[j].remaining
	}
	return h[i].seq < h[j].seq
}
func (h srptHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *srptHeap) Push(x any)        { *h = append(*h, x.(srptJob)) }
func (h *srptHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SRPT is preemptive shortest-remaining-processing-time. At most one job is
// in service at a time; the network engine treats a positive QueryTTNC as
// "this server completes next in that much wall-clock time".
//
// The "running arrival time" shadow field mirrors the in-service job's
// arrival timestamp. It exists because the job's arrival time must be read
// before the next top is installed -- reading it after would read the
// wrong job's arrival time, corrupting response-time accounting.
type SRPT struct {
	base
	dist               sim.Distribution
	waiting            srptHeap
	runningArrivalTime float64
	seqCounter         int64
}

// NewSRPT constructs a single-server preemptive SRPT server. numServers
// must be 1: SRPT does not support parallel channels.
func NewSRPT(dist sim.Distribution, numServers, bufferCapacity int) (*SRPT, error) {
	if numServers != 1 {
		return nil, sim.NewUsageError("SRPT does not support num_servers > 1, got %d", numServers)
	}
	if err := sim.ValidateBufferCapacity(bufferCapacity); err != nil {
		return nil, err
	}
	return &SRPT{base: newBase(1, bufferCapacity), dist: dist}, nil
}

// Reset implements sim.Server.
func (s *SRPT) Reset() {
	s.resetCounters()
	s.waiting = s.waiting[:0]
	s.runningArrivalTime = 0
	s.seqCounter = 0
}

// Arrival implements sim.Server.
func (s *SRPT) Arrival() {
	s.state++
	fresh := srptJob{remaining: s.dist.Sample(s.rng), arrivalTime: s.clock, seq: s.seqCounter}
	s.seqCounter++

	if s.state == 1 {
		// Was idle: the new job starts service immediately.
		s.ttnc = fresh.remaining
		s.runningArrivalTime = fresh.arrivalTime
		return
	}

	// Preempt: push the currently-served job back with its preserved
	// remaining and arrival time, push the new job, then let the new
	// global minimum take over service.
	heap.Push(&s.waiting, srptJob{remaining: s.ttnc, arrivalTime: s.runningArrivalTime, seq: s.seqCounter})
	s.seqCounter++
	heap.Push(&s.waiting, fresh)
	top := heap.Pop(&s.waiting).(srptJob)
	s.ttnc = top.remaining
	s.runningArrivalTime = top.arrivalTime
}

// Update implements sim.Server.
func (s *SRPT) Update(dt float64) bool {
	s.clock += dt
	if s.state == 0 {
		return false
	}
	s.ttnc -= dt
	// feTolerance rather than an exact-zero test: a deliberate deviation from
	// the reference's TTNC <= 0.0 trigger, tolerable because dt is always
	// <= the engine's own TTNC query for this server.
	if s.ttnc > feTolerance {
		return false
	}

	responseTime := s.clock - s.runningArrivalTime
	s.recordCompletion(responseTime)
	s.state--

	if s.state > 0 {
		top := heap.Pop(&s.waiting).(srptJob)
		s.ttnc = top.remaining
		s.runningArrivalTime = top.arrivalTime
	} else {
		s.ttnc = sim.PositiveInfinity
		s.runningArrivalTime = 0
	}
	return true
}

// QueryTTNC implements sim.Server.
func (s *SRPT) QueryTTNC() float64 {
	return s.ttnc
}

// Clone implements sim.Server.
func (s *SRPT) Clone() sim.Server {
	clone, _ := NewSRPT(s.dist, 1, s.bufferCapacity)
	return clone
}
