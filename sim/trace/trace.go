// Package trace provides the append-only event log recorded during a
// simulation run. This package has no dependency on sim/ — it stores pure
// data types, mirroring the teacher's decision-trace package.
package trace

import "fmt"

// EventKind classifies one entry in an EventLog.
type EventKind uint8

const (
	// Arrival is an external job entering the network at server 0.
	Arrival EventKind = iota
	// Departure is a job exiting the network after completing service.
	Departure
	// Route is a job completing at one server and being admitted at another.
	Route
	// Rejection is a job turned away because its destination's buffer is full.
	Rejection
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "ARRIVAL"
	case Departure:
		return "DEPARTURE"
	case Route:
		return "ROUTE"
	case Rejection:
		return "REJECTION"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// External is the sentinel server index for "outside the system": the
// source of an external arrival, or the origin of a rejected external
// arrival.
const External = -1

// SystemExit is the sentinel destination index for "leaves the system" on a
// Departure event. It reuses the External sentinel value, per spec.
const SystemExit = External

// EventLog is an append-only ordered trace of arrivals, departures, routes,
// and rejections, stored as five parallel slices rather than an array of
// structs for cache-friendly bulk consumption by external tooling.
type EventLog struct {
	Times      []float64
	Kinds      []EventKind
	FromServer []int
	ToServer   []int
	StateAfter []int
}

// NewEventLog creates an EventLog pre-sized to capacityHint entries to avoid
// reallocation in the hot path. Pass 0 for no pre-sizing.
func NewEventLog(capacityHint int) *EventLog {
	return &EventLog{
		Times:      make([]float64, 0, capacityHint),
		Kinds:      make([]EventKind, 0, capacityHint),
		FromServer: make([]int, 0, capacityHint),
		ToServer:   make([]int, 0, capacityHint),
		StateAfter: make([]int, 0, capacityHint),
	}
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	return len(l.Times)
}

// record appends one event. Internal; call sites use the Record* helpers
// below so kind semantics stay self-documenting.
func (l *EventLog) record(t float64, kind EventKind, from, to, stateAfter int) {
	l.Times = append(l.Times, t)
	l.Kinds = append(l.Kinds, kind)
	l.FromServer = append(l.FromServer, from)
	l.ToServer = append(l.ToServer, to)
	l.StateAfter = append(l.StateAfter, stateAfter)
}

// RecordArrival logs an external job entering the network at server 0.
func (l *EventLog) RecordArrival(t float64, stateAfter int) {
	l.record(t, Arrival, External, 0, stateAfter)
}

// RecordDeparture logs a job exiting the network after completing service
// at server i.
func (l *EventLog) RecordDeparture(t float64, i int, stateAfter int) {
	l.record(t, Departure, i, SystemExit, stateAfter)
}

// RecordRoute logs a job completing at server i and being admitted at
// server j.
func (l *EventLog) RecordRoute(t float64, i, j int, stateAfter int) {
	l.record(t, Route, i, j, stateAfter)
}

// RecordRejection logs a job turned away at server j because its buffer is
// full. from is External for a rejected external arrival, or the
// completing server's index for an internally-routed job lost mid-network.
func (l *EventLog) RecordRejection(t float64, from, j int, stateAfter int) {
	l.record(t, Rejection, from, j, stateAfter)
}
