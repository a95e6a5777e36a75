package policy

import "github.com/queuesim/queuesim/sim"

// fbJob is one job tracked by FB: remaining service requirement, service
// already attained, and arrival clock.
type fbJob struct {
	remaining   float64
	attained    float64
	arrivalTime float64
}

// FB is foreground-background / least-attained-service. The active set is
// every job whose attained service is within feTolerance of the minimum;
// each active job receives an equal share (1/|active|) of service
// capacity, inactive jobs receive none. A freshly arrived job starts at
// attained == 0, so it immediately joins (or, if it is strictly below the
// current minimum, becomes) the active set.
type FB struct {
	base
	dist sim.Distribution
	jobs []fbJob
}

// NewFB constructs a single-server FB server. numServers must be 1: FB does
// not support parallel channels.
func NewFB(dist sim.Distribution, numServers, bufferCapacity int) (*FB, error) {
	if numServers != 1 {
		return nil, sim.NewUsageError("FB does not support num_servers > 1, got %d", numServers)
	}
	if err := sim.ValidateBufferCapacity(bufferCapacity); err != nil {
		return nil, err
	}
	return &FB{base: newBase(1, bufferCapacity), dist: dist}, nil
}

// Reset implements sim.Server.
func (f *FB) Reset() {
	f.resetCounters()
	f.jobs = f.jobs[:0]
}

// Arrival implements sim.Server.
func (f *FB) Arrival() {
	f.jobs = append(f.jobs, fbJob{remaining: f.dist.Sample(f.rng), attained: 0, arrivalTime: f.clock})
	f.state++
	f.recomputeTTNC()
}

// minAttained returns the minimum attained service across all jobs.
func (f *FB) minAttained() float64 {
	m := f.jobs[0].attained
	for _, j := range f.jobs[1:] {
		if j.attained < m {
			m = j.attained
		}
	}
	return m
}

func (f *FB) isActive(j fbJob, minAttained float64) bool {
	return j.attained-minAttained <= feTolerance
}

// Update implements sim.Server.
func (f *FB) Update(dt float64) bool {
	f.clock += dt
	if f.state == 0 {
		return false
	}

	minA := f.minAttained()
	nActive := 0
	for _, j := range f.jobs {
		if f.isActive(j, minA) {
			nActive++
		}
	}
	workPerActive := dt / float64(nActive)

	completedIdx := -1
	for i := range f.jobs {
		if !f.isActive(f.jobs[i], minA) {
			continue
		}
		f.jobs[i].remaining -= workPerActive
		f.jobs[i].attained += workPerActive
		if completedIdx == -1 && f.jobs[i].remaining <= feTolerance {
			completedIdx = i
		}
	}

	if completedIdx == -1 {
		f.recomputeTTNC()
		return false
	}

	completed := f.jobs[completedIdx]
	f.jobs = append(f.jobs[:completedIdx], f.jobs[completedIdx+1:]...)
	f.recordCompletion(f.clock - completed.arrivalTime)
	f.state--
	f.recomputeTTNC()
	return true
}

// QueryTTNC implements sim.Server.
func (f *FB) QueryTTNC() float64 {
	return f.ttnc
}

// recomputeTTNC computes the two competing horizons -- completion and level
// crossing -- and sets ttnc to their minimum, per spec.md §4.1.
func (f *FB) recomputeTTNC() {
	if f.state == 0 || len(f.jobs) == 0 {
		f.ttnc = sim.PositiveInfinity
		return
	}
	minA := f.minAttained()

	nActive := 0
	minRemActive := sim.PositiveInfinity
	hasInactive := false
	minInactiveAttained := sim.PositiveInfinity
	for _, j := range f.jobs {
		if f.isActive(j, minA) {
			nActive++
			if j.remaining < minRemActive {
				minRemActive = j.remaining
			}
		} else {
			hasInactive = true
			if j.attained < minInactiveAttained {
				minInactiveAttained = j.attained
			}
		}
	}

	completionHorizon := minRemActive * float64(nActive)
	levelHorizon := sim.PositiveInfinity
	if hasInactive {
		levelHorizon = (minInactiveAttained - minA) * float64(nActive)
	}

	if completionHorizon < levelHorizon {
		f.ttnc = completionHorizon
	} else {
		f.ttnc = levelHorizon
	}
}

// Clone implements sim.Server.
func (f *FB) Clone() sim.Server {
	clone, _ := NewFB(f.dist, 1, f.bufferCapacity)
	return clone
}
