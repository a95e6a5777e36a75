package cmd

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/queuesim/queuesim/sim"
	"github.com/queuesim/queuesim/sim/policy"
)

// DistributionConfig describes one of the three supported samplers. Kind
// selects which parameter group is used; fields of the other groups are
// ignored.
type DistributionConfig struct {
	Kind string `yaml:"kind"` // "exponential", "uniform", or "bounded_pareto"

	Mu float64 `yaml:"mu,omitempty"` // exponential

	A float64 `yaml:"a,omitempty"` // uniform
	B float64 `yaml:"b,omitempty"`

	K     float64 `yaml:"k,omitempty"` // bounded_pareto
	P     float64 `yaml:"p,omitempty"`
	Alpha float64 `yaml:"alpha,omitempty"`
}

// Build constructs the sim.Distribution this config describes.
func (c DistributionConfig) Build() (sim.Distribution, error) {
	switch c.Kind {
	case "exponential":
		return sim.NewExponential(c.Mu)
	case "uniform":
		return sim.NewUniform(c.A, c.B)
	case "bounded_pareto":
		return sim.NewBoundedPareto(c.K, c.P, c.Alpha)
	default:
		return nil, sim.NewConfigError("unknown distribution kind %q", c.Kind)
	}
}

// ServerConfig groups the parameters needed to construct one policy
// instance: which policy, its service-time distribution, channel count, and
// buffer capacity. Mirrors the teacher's grouping-struct pattern for
// per-component configuration.
type ServerConfig struct {
	Policy         string             `yaml:"policy"` // "fcfs", "srpt", "ps", or "fb"
	Service        DistributionConfig `yaml:"service"`
	NumServers     int                `yaml:"num_servers,omitempty"`
	BufferCapacity int                `yaml:"buffer_capacity,omitempty"`
}

// Build constructs the sim.Server this config describes. BufferCapacity
// defaults to sim.Unlimited, NumServers to 1.
func (c ServerConfig) Build() (sim.Server, error) {
	dist, err := c.Service.Build()
	if err != nil {
		return nil, err
	}
	numServers := c.NumServers
	if numServers == 0 {
		numServers = 1
	}
	bufferCapacity := c.BufferCapacity
	if bufferCapacity == 0 {
		bufferCapacity = sim.Unlimited
	}

	switch c.Policy {
	case "fcfs":
		return policy.NewFCFS(dist, numServers, bufferCapacity)
	case "srpt":
		return policy.NewSRPT(dist, numServers, bufferCapacity)
	case "ps":
		return policy.NewPS(dist, numServers, bufferCapacity)
	case "fb":
		return policy.NewFB(dist, numServers, bufferCapacity)
	default:
		return nil, sim.NewConfigError("unknown policy %q", c.Policy)
	}
}

// ReplicationConfig describes a replicate() call.
type ReplicationConfig struct {
	NReplications int    `yaml:"n_replications,omitempty"`
	NumEvents     int64  `yaml:"num_events,omitempty"`
	BaseSeed      uint64 `yaml:"base_seed,omitempty"`
	Warmup        int64  `yaml:"warmup,omitempty"`
	NThreads      int    `yaml:"n_threads,omitempty"`
}

// QueueSystemConfig is the on-disk description of a network: its servers,
// routing matrix, arrival process, and default replication parameters.
// Loaded with strict unknown-field rejection, same as the teacher's
// default-config loader.
type QueueSystemConfig struct {
	Arrival     DistributionConfig `yaml:"arrival"`
	Servers     []ServerConfig     `yaml:"servers"`
	Routing     [][]float64        `yaml:"routing,omitempty"`
	Replication ReplicationConfig  `yaml:"replication,omitempty"`
}

// LoadQueueSystemConfig reads and strictly decodes a QueueSystemConfig from
// path, rejecting unknown fields so a typo'd key fails fast rather than
// silently falling back to a default.
func LoadQueueSystemConfig(path string) (*QueueSystemConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sim.WrapConfigError(err, "opening config %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg QueueSystemConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, sim.WrapConfigError(err, "parsing config %s", path)
	}
	return &cfg, nil
}

// Build constructs a QueueSystem from this config via the same public
// construction API Go callers use, so there is exactly one validation code
// path between file-driven and programmatic use.
func (c *QueueSystemConfig) Build() (*sim.QueueSystem, error) {
	arrival, err := c.Arrival.Build()
	if err != nil {
		return nil, err
	}

	servers := make([]sim.Server, 0, len(c.Servers))
	for i, sc := range c.Servers {
		s, err := sc.Build()
		if err != nil {
			return nil, sim.NewConfigError("server[%d]: %v", i, err)
		}
		servers = append(servers, s)
	}

	return sim.NewQueueSystem(servers, arrival, c.Routing)
}
