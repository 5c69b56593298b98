package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestManager builds a manager over users with the given roles (ID = index),
// dealt round-robin in ID order over numBuckets buckets.
func newTestManager(t *testing.T, name string, roles []Role, numBuckets, capacity int) *Manager {
	t.Helper()
	spec, err := LookupManagerSpec(name)
	require.NoError(t, err)
	return newTestManagerFromSpec(t, spec, roles, numBuckets, capacity)
}

func newTestManagerFromSpec(t *testing.T, spec ManagerSpec, roles []Role, numBuckets, capacity int) *Manager {
	t.Helper()
	population := make([]*User, len(roles))
	order := make([]int, len(roles))
	for i, r := range roles {
		population[i] = NewUser(i, r)
		order[i] = i
	}
	m, err := NewManager(spec, population, order, numBuckets, capacity,
		NewPartitionedRNG(NewSimulationKey(1)).Fresh(SubsystemManager), nil)
	require.NoError(t, err)
	return m
}

// roles returns n roles with attackers at the given indices.
func roles(n int, attackers ...int) []Role {
	out := make([]Role, n)
	for i := range out {
		out[i] = RoleBenign
	}
	for _, a := range attackers {
		out[a] = RoleAttacker
	}
	return out
}

// activeSet marks ids as attacking.
func activeSet(ids ...int) map[int]bool {
	out := make(map[int]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// memberIDs returns the member IDs of b in order.
func memberIDs(b *Bucket) []int {
	ids := make([]int, 0, b.Len())
	for _, u := range b.Members() {
		ids = append(ids, u.ID)
	}
	return ids
}
