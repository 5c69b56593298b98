package sim

import (
	"fmt"
	"sort"
)

// ManagerKind names a redistribution policy family.
type ManagerKind string

const (
	KindSieve   ManagerKind = "sieve"
	KindBounded ManagerKind = "bounded"
	KindKPO     ManagerKind = "kpo"
	KindMiad    ManagerKind = "miad"
	KindProtag  ManagerKind = "protag"
)

// Default strategy parameters.
const (
	DefaultBoundedBudget        = 3
	DefaultEliminationThreshold = 1.0
)

// ManagerSpec is the tagged configuration of a manager. Variants are selected
// by tag, not by type: one Redistribute entry point per kind dispatches on it.
type ManagerSpec struct {
	Name          string
	Kind          ManagerKind
	Version       int // sieve candidate selection: 0 = all buckets, 1 = attacked buckets
	SuspicionFunc int // selector into the suspicion functions

	Budget               int     // bounded: maximum sieve passes per run
	EliminationThreshold float64 // protag: suspicion at which a user is blacklisted
}

// managerSpecs maps every canonical manager name to its tag.
var managerSpecs = map[string]ManagerSpec{
	"sieve-v0-s0": {Kind: KindSieve, Version: 0, SuspicionFunc: 0},
	"sieve-v0-s1": {Kind: KindSieve, Version: 0, SuspicionFunc: 1},
	"sieve-v0-s2": {Kind: KindSieve, Version: 0, SuspicionFunc: 2},
	"sieve-v1-s0": {Kind: KindSieve, Version: 1, SuspicionFunc: 0},
	"sieve-v1-s1": {Kind: KindSieve, Version: 1, SuspicionFunc: 1},
	"sieve-v1-s2": {Kind: KindSieve, Version: 1, SuspicionFunc: 2},
	"bounded":     {Kind: KindBounded, Budget: DefaultBoundedBudget},
	"kpo":         {Kind: KindKPO},
	"miad":        {Kind: KindMiad},
	"protag":      {Kind: KindProtag, EliminationThreshold: DefaultEliminationThreshold},
}

// IsValidManager returns true if name is a canonical manager name.
func IsValidManager(name string) bool {
	_, ok := managerSpecs[name]
	return ok
}

// ManagerNames returns every canonical manager name, sorted.
func ManagerNames() []string {
	names := make([]string, 0, len(managerSpecs))
	for name := range managerSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupManagerSpec returns the default tag for a canonical manager name.
func LookupManagerSpec(name string) (ManagerSpec, error) {
	spec, ok := managerSpecs[name]
	if !ok {
		return ManagerSpec{}, fmt.Errorf("unknown manager %q: %w", name, ErrConfig)
	}
	spec.Name = name
	return spec, nil
}

// NewPolicy creates the redistribution policy for spec.
// Panics on an unknown kind; specs come from LookupManagerSpec.
func NewPolicy(spec ManagerSpec) Policy {
	switch spec.Kind {
	case KindSieve:
		return &SievePolicy{Version: spec.Version}
	case KindBounded:
		return &BoundedPolicy{Budget: spec.Budget}
	case KindKPO:
		return &KPOPolicy{}
	case KindMiad:
		return &MiadPolicy{}
	case KindProtag:
		return &ProtagPolicy{Threshold: spec.EliminationThreshold}
	default:
		panic(fmt.Sprintf("unhandled manager kind %q", spec.Kind))
	}
}
