// Package replicate drives many independent simulation runs across a
// worker pool, deriving each replication's seed from a base seed via
// SplitMix64 so the output is bit-identical regardless of worker count.
package replicate

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/queuesim/queuesim/sim"
)

// phi is the golden-ratio odd constant used both as the SplitMix64
// increment and as the per-index stride when deriving replication seeds.
const phi = 0x9E3779B97F4A7C15

// splitMix64 runs one round of the SplitMix64 mixing function (Steele,
// Vigna). It is deterministic and has no internal state beyond its input.
func splitMix64(x uint64) uint64 {
	x += phi
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// DeriveSeed maps (baseSeed, index) to a per-replication seed. Bit-for-bit
// equivalence with this derivation is required for cross-implementation
// reproducibility; do not change the constants or the mixing order.
func DeriveSeed(baseSeed uint64, index int) uint64 {
	return splitMix64(baseSeed + uint64(index)*phi)
}

// Options configures a replication batch. WorkerCount <= 0 defaults to
// min(runtime.NumCPU(), NReplications).
type Options struct {
	NReplications      int
	NumEvents          int64
	Seed               uint64
	Warmup             int64
	WorkerCount        int
	TrackResponseTimes bool
}

// Result holds the raw per-replication outputs. Index i corresponds to
// replication i regardless of which worker produced it.
type Result struct {
	RawN []float64
	RawT []float64
}

// Blueprint builds a fresh, write-private QueueSystem for one worker. Pass
// (*sim.QueueSystem).Clone bound to the system under replication, or any
// other constructor that returns servers cloned from the shared blueprint
// (structural parameters only, no dynamic state) -- never an aliased,
// already-mutated system.
type Blueprint func() *sim.QueueSystem

// Run drives opts.NReplications independent simulations across a worker
// pool, each with a private QueueSystem obtained from blueprint(). Workers
// receive disjoint contiguous index ranges; writes to RawN/RawT land on
// distinct indices, so no synchronization is needed beyond the join at the
// end. A worker's fatal error aborts the whole batch.
func Run(blueprint Blueprint, opts Options) (Result, error) {
	if opts.NReplications <= 0 {
		return Result{}, sim.NewConfigError("replicate requires n_replications > 0, got %d", opts.NReplications)
	}

	workers := opts.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > opts.NReplications {
		workers = opts.NReplications
	}

	result := Result{
		RawN: make([]float64, opts.NReplications),
		RawT: make([]float64, opts.NReplications),
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)

	chunk := opts.NReplications / workers
	remainder := opts.NReplications % workers
	start := 0
	for w := 0; w < workers; w++ {
		end := start + chunk
		if w < remainder {
			end++
		}
		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			errs[workerID] = runRange(blueprint, opts, start, end, &result)
		}(w, start, end)
		start = end
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	logrus.Debugf("replicate: %d replications across %d workers", opts.NReplications, workers)
	return result, nil
}

// runRange drives replications [start, end) on one worker, writing results
// directly into the shared result arrays at indices it alone owns.
func runRange(blueprint Blueprint, opts Options, start, end int, result *Result) error {
	q := blueprint()

	for i := start; i < end; i++ {
		seed := DeriveSeed(opts.Seed, i)
		run, err := q.Sim(sim.SimOptions{
			NumEvents:          opts.NumEvents,
			Seed:               seed,
			Warmup:             opts.Warmup,
			TrackResponseTimes: opts.TrackResponseTimes,
		})
		if err != nil {
			return err
		}
		result.RawN[i] = run.MeanN
		result.RawT[i] = run.MeanT
	}
	return nil
}
