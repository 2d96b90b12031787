package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. The same key, device count,
// policy and scenario reproduce a run exactly.
type SimulationKey int64

// NewSimulationKey wraps a --seed value.
func NewSimulationKey(seed int64) SimulationKey { return SimulationKey(seed) }

// Random streams handed out by PartitionedRNG.
const (
	// SubsystemWorkload draws task arrivals, sizes and application classes.
	// It is seeded with the master seed itself.
	SubsystemWorkload = "workload"
	// SubsystemMobility draws initial vehicle positions on the road.
	SubsystemMobility = "mobility"
	// SubsystemOrchestrator draws policy randomness: tier buckets and coin flips.
	SubsystemOrchestrator = "orchestrator"
)

// PartitionedRNG hands each subsystem its own *rand.Rand. Every stream other
// than the workload is seeded with key XOR fnv1a64(name), so the number of
// draws a policy makes never shifts the tasks or vehicle positions of a run.
//
// Thread-safety: NOT thread-safe. Each run owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG returns a PartitionedRNG with no streams created yet.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(p.seedFor(name)))
	p.subsystems[name] = r
	return r
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemWorkload {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
