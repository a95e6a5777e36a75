package trace

import "fmt"

// delta is the algebraic change in network-wide occupancy an event kind
// contributes. Arrival is +1 (a job enters the network), Departure and
// Rejection are -1 (a job leaves, completed or lost). Route is 0: a job
// moving from one server to another changes no server's membership in the
// network as a whole, so StateAfter on a Route event is unchanged from the
// event immediately before it. Validate overrides the Rejection delta to 0
// for a rejected external arrival, which never entered the network.
func (k EventKind) delta() int {
	switch k {
	case Arrival:
		return 1
	case Departure, Rejection:
		return -1
	default:
		return 0
	}
}

// Validate checks the structural invariants every EventLog must satisfy:
// equal-length parallel slices, nondecreasing times, and that StateAfter at
// each index equals the running sum of per-event deltas. Returns a
// descriptive error on the first violation found.
func (l *EventLog) Validate() error {
	n := l.Len()
	if len(l.Kinds) != n || len(l.FromServer) != n || len(l.ToServer) != n || len(l.StateAfter) != n {
		return fmt.Errorf("event log slices have mismatched lengths")
	}
	running := 0
	for i := 0; i < n; i++ {
		if i > 0 && l.Times[i] < l.Times[i-1] {
			return fmt.Errorf("event %d: time %v precedes previous time %v", i, l.Times[i], l.Times[i-1])
		}
		d := l.Kinds[i].delta()
		if l.Kinds[i] == Rejection && l.FromServer[i] == External {
			d = 0
		}
		running += d
		if running != l.StateAfter[i] {
			return fmt.Errorf("event %d: reconstructed state %d does not match StateAfter %d", i, running, l.StateAfter[i])
		}
		if l.StateAfter[i] < 0 {
			return fmt.Errorf("event %d: StateAfter is negative (%d)", i, l.StateAfter[i])
		}
	}
	return nil
}

// CountsByKind tallies how many events of each kind were recorded.
func (l *EventLog) CountsByKind() map[EventKind]int {
	counts := make(map[EventKind]int, 4)
	for _, k := range l.Kinds {
		counts[k]++
	}
	return counts
}
