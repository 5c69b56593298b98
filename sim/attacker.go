package sim

import (
	"fmt"
	"math/rand"
)

// AttackerStrategy decides which attackers are active in a round.
// The same active set is applied to every manager under test.
type AttackerStrategy interface {
	Active(round int, attackers []int) []int
}

// BasicAttacker attacks every round.
type BasicAttacker struct{}

// Active implements AttackerStrategy for BasicAttacker.
func (a *BasicAttacker) Active(_ int, attackers []int) []int {
	return attackers
}

// EvenTurnAttacker only attacks on even rounds, hoping calm rounds let its
// buckets look safe.
type EvenTurnAttacker struct{}

// Active implements AttackerStrategy for EvenTurnAttacker.
func (a *EvenTurnAttacker) Active(round int, attackers []int) []int {
	if round%2 != 0 {
		return nil
	}
	return attackers
}

// RandomAttacker has each attacker attack independently with probability P.
type RandomAttacker struct {
	P   float64
	rng *rand.Rand
}

// NewRandomAttacker creates a RandomAttacker drawing from rng.
func NewRandomAttacker(p float64, rng *rand.Rand) *RandomAttacker {
	return &RandomAttacker{P: p, rng: rng}
}

// Active implements AttackerStrategy for RandomAttacker.
func (a *RandomAttacker) Active(_ int, attackers []int) []int {
	var out []int
	for _, id := range attackers {
		if a.rng.Float64() < a.P {
			out = append(out, id)
		}
	}
	return out
}

// ValidAttackers is the set of recognized attacker strategy names.
var ValidAttackers = map[string]bool{"": true, "basic": true, "even-turn": true, "random": true}

// AttackerNames lists the named attacker strategies, default first.
var AttackerNames = []string{"basic", "even-turn", "random"}

// NewAttackerStrategy creates an attacker strategy by name. Empty means basic.
// Panics on unrecognized names.
func NewAttackerStrategy(name string, rng *PartitionedRNG) AttackerStrategy {
	if !ValidAttackers[name] {
		panic(fmt.Sprintf("unknown attacker strategy %q", name))
	}
	switch name {
	case "", "basic":
		return &BasicAttacker{}
	case "even-turn":
		return &EvenTurnAttacker{}
	case "random":
		return NewRandomAttacker(0.5, rng.ForSubsystem(SubsystemAttacker))
	default:
		panic(fmt.Sprintf("unhandled attacker strategy %q", name))
	}
}
