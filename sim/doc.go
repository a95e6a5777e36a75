// Package sim provides the core discrete-event simulation engine for open
// queueing networks.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - server.go: the Server contract every scheduling policy implements
//   - distribution.go: the RNG sampler sum type used for arrivals and service
//   - routing.go: the stochastic routing matrix between servers and exit
//   - network.go: the event loop, time-advance scheme, and statistics
//
// # Architecture
//
// The sim package defines the Server interface and the network engine that
// drives it; concrete scheduling policies live in sim/policy. Event logging
// lives in sim/trace (pure data, no dependency on sim). Replication across
// independent runs lives in sim/replicate. Estimators over replication
// output live in sim/stats.
//
// # Key Interfaces
//
//   - Server: the four operations (Reset, Arrival, Update, QueryTTNC) every
//     scheduling policy implements.
//   - Distribution: Sample(rng) for Exponential, Uniform, and Bounded Pareto.
package sim
