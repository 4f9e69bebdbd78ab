package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run: the same key over the same
// reference data and config gives the same result.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Subsystem names one independent random stream of a run.
type Subsystem string

const (
	// SubsystemShelf draws shelf-removal times during location prioritization.
	// It is seeded with the key itself.
	SubsystemShelf Subsystem = "shelf"

	// SubsystemTravel draws horizontal and vertical speeds, one pair per
	// intra-aisle leg and one horizontal speed per inter-aisle leg.
	SubsystemTravel Subsystem = "travel"

	// SubsystemTransfer draws tool-transfer durations.
	SubsystemTransfer Subsystem = "transfer"
)

// PartitionedRNG hands each subsystem its own stream, so an extra travel leg
// never shifts the shelf-time sequence. Streams other than the shelf one are
// seeded with key XOR fnv1a64(name). Not safe for concurrent use.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[Subsystem]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[Subsystem]*rand.Rand)}
}

// ForSubsystem returns the stream of s, creating it on first use. Repeated
// calls return the same *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(s Subsystem) *rand.Rand {
	if rng, ok := p.streams[s]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seedFor(s)))
	p.streams[s] = rng
	return rng
}

func (p *PartitionedRNG) seedFor(s Subsystem) int64 {
	if s == SubsystemShelf {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(string(s))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
