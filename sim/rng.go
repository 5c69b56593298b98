package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce identical utility sequences.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload drives population layout: which IDs are attackers and
	// the initial user-to-bucket assignment. Uses the master seed directly.
	SubsystemWorkload = "workload"

	// SubsystemAttacker drives per-round attacker activity (random strategy).
	SubsystemAttacker = "attacker"

	// SubsystemManager drives tie-breaking shuffles inside redistribution.
	// Every manager gets a fresh stream with this derivation, so managers
	// compared in one run see identical draws.
	SubsystemManager = "manager"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemWorkload: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := p.Fresh(name)
	p.subsystems[name] = rng
	return rng
}

// Fresh returns a new, uncached RNG with the same derivation as ForSubsystem.
// Two Fresh calls with the same name yield independent instances producing
// identical sequences.
func (p *PartitionedRNG) Fresh(name string) *rand.Rand {
	return rand.New(rand.NewSource(p.deriveSeed(name)))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func (p *PartitionedRNG) deriveSeed(name string) int64 {
	if name == SubsystemWorkload {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
