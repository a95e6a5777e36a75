package policy

import "github.com/queuesim/queuesim/sim"

// psJob is one job in PS's unordered collection: remaining service time and
// the clock at which it arrived.
type psJob struct {
	remaining   float64
	arrivalTime float64
}

// PS is processor-sharing with k servers. Every job present receives an
// equal share of min(k, state) units of service capacity; for k >= state
// the per-job rate is 1 (serve-all), and the slowdown only appears once
// state exceeds k.
type PS struct {
	base
	dist sim.Distribution
	jobs []psJob
}

// NewPS constructs a k-server processor-sharing server.
func NewPS(dist sim.Distribution, numServers, bufferCapacity int) (*PS, error) {
	if numServers < 1 {
		return nil, sim.NewUsageError("PS requires num_servers >= 1, got %d", numServers)
	}
	if err := sim.ValidateBufferCapacity(bufferCapacity); err != nil {
		return nil, err
	}
	return &PS{base: newBase(numServers, bufferCapacity), dist: dist}, nil
}

// Reset implements sim.Server.
func (p *PS) Reset() {
	p.resetCounters()
	p.jobs = p.jobs[:0]
}

// rate returns the current per-job service rate, min(k, state)/state.
func (p *PS) rate() float64 {
	if p.state == 0 {
		return 0
	}
	k := p.numServers
	if k > p.state {
		k = p.state
	}
	return float64(k) / float64(p.state)
}

// Arrival implements sim.Server.
func (p *PS) Arrival() {
	p.jobs = append(p.jobs, psJob{remaining: p.dist.Sample(p.rng), arrivalTime: p.clock})
	p.state++
	p.recomputeTTNC()
}

// Update implements sim.Server.
func (p *PS) Update(dt float64) bool {
	p.clock += dt
	if p.state == 0 {
		return false
	}
	r := p.rate()
	for i := range p.jobs {
		p.jobs[i].remaining -= dt * r
	}

	minIdx := 0
	for i := 1; i < len(p.jobs); i++ {
		if p.jobs[i].remaining < p.jobs[minIdx].remaining {
			minIdx = i
		}
	}
	// feTolerance rather than an exact-zero test: a deliberate deviation from
	// the reference's TTNC <= 0.0 trigger, tolerable because dt is always
	// <= the engine's own TTNC query for this server.
	if p.jobs[minIdx].remaining > feTolerance {
		p.recomputeTTNC()
		return false
	}

	completed := p.jobs[minIdx]
	p.jobs = append(p.jobs[:minIdx], p.jobs[minIdx+1:]...)
	responseTime := p.clock - completed.arrivalTime
	p.recordCompletion(responseTime)
	p.state--
	p.recomputeTTNC()
	return true
}

// QueryTTNC implements sim.Server.
func (p *PS) QueryTTNC() float64 {
	return p.ttnc
}

func (p *PS) recomputeTTNC() {
	if p.state == 0 || len(p.jobs) == 0 {
		p.ttnc = sim.PositiveInfinity
		return
	}
	minRemaining := p.jobs[0].remaining
	for _, j := range p.jobs[1:] {
		if j.remaining < minRemaining {
			minRemaining = j.remaining
		}
	}
	r := p.rate()
	if r == 0 {
		p.ttnc = sim.PositiveInfinity
		return
	}
	p.ttnc = minRemaining / r
}

// Clone implements sim.Server.
func (p *PS) Clone() sim.Server {
	clone, _ := NewPS(p.dist, p.numServers, p.bufferCapacity)
	return clone
}
