package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_DealsRoundRobin(t *testing.T) {
	// GIVEN 10 users dealt in ID order over 2 buckets
	m := newTestManager(t, "sieve-v0-s0", roles(10, 3), 2, DefaultBucketCapacity)

	// THEN even IDs land in bucket 0 and odd IDs in bucket 1
	assert.Equal(t, []int{0, 2, 4, 6, 8}, memberIDs(m.Buckets()[0]))
	assert.Equal(t, []int{1, 3, 5, 7, 9}, memberIDs(m.Buckets()[1]))
	for _, u := range m.Users() {
		assert.Equal(t, u.ID%2, u.BucketID())
	}
}

func TestNewManager_ClonesPopulation(t *testing.T) {
	// GIVEN one population shared by two managers
	population := []*User{NewUser(0, RoleAttacker), NewUser(1, RoleBenign)}
	order := []int{0, 1}
	rng := NewPartitionedRNG(NewSimulationKey(1))
	specA, _ := LookupManagerSpec("sieve-v0-s0")
	specB, _ := LookupManagerSpec("kpo")
	a, err := NewManager(specA, population, order, 1, 10, rng.Fresh(SubsystemManager), nil)
	require.NoError(t, err)
	b, err := NewManager(specB, population, order, 1, 10, rng.Fresh(SubsystemManager), nil)
	require.NoError(t, err)

	// WHEN one manager's users gain suspicion
	_, err = a.RunRound(1, activeSet(0))
	require.NoError(t, err)

	// THEN neither the other manager nor the original population sees it
	assert.Greater(t, a.Users()[1].Suspicion, 0.0)
	assert.Equal(t, 0.0, b.Users()[1].Suspicion)
	assert.Equal(t, 0.0, population[1].Suspicion)
	assert.Equal(t, unplaced, population[0].BucketID())
}

func TestNewManager_InvalidArguments(t *testing.T) {
	spec, err := LookupManagerSpec("sieve-v0-s0")
	require.NoError(t, err)
	rng := NewPartitionedRNG(NewSimulationKey(1)).Fresh(SubsystemManager)
	users := []*User{NewUser(0, RoleBenign), NewUser(1, RoleBenign), NewUser(2, RoleBenign)}

	tests := []struct {
		name       string
		order      []int
		numBuckets int
		capacity   int
	}{
		{"no buckets", []int{0, 1, 2}, 0, 10},
		{"short order", []int{0, 1}, 1, 10},
		{"zero capacity", []int{0, 1, 2}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(spec, users, tt.order, tt.numBuckets, tt.capacity, rng, nil)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestNewManager_PopulationOverCapacity_Fails(t *testing.T) {
	spec, err := LookupManagerSpec("sieve-v0-s0")
	require.NoError(t, err)
	users := []*User{NewUser(0, RoleBenign), NewUser(1, RoleBenign), NewUser(2, RoleBenign)}

	_, err = NewManager(spec, users, []int{0, 1, 2}, 1, 2,
		NewPartitionedRNG(NewSimulationKey(1)).Fresh(SubsystemManager), nil)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestManager_RunRound_UtilityCountsBenignInSafeBuckets(t *testing.T) {
	// GIVEN attacker 3 in bucket 1 of two five-user buckets
	m := newTestManager(t, "sieve-v0-s0", roles(10, 3), 2, DefaultBucketCapacity)

	// WHEN the attacker attacks
	u, err := m.RunRound(1, activeSet(3))

	// THEN only bucket 0's five benign users are served
	require.NoError(t, err)
	assert.Equal(t, 5.0, u)
	assert.Equal(t, 1, m.Round())
}

func TestManager_RunRound_IdleAttackerServesEveryBenignUser(t *testing.T) {
	m := newTestManager(t, "sieve-v0-s0", roles(10, 3), 2, DefaultBucketCapacity)

	u, err := m.RunRound(1, activeSet())

	require.NoError(t, err)
	assert.Equal(t, 9.0, u)
	assert.Empty(t, m.AttackedBuckets())
}

func TestManager_RunRound_SuspicionIsOneOverN(t *testing.T) {
	// GIVEN attacker 0 in bucket 0 = {0,2,4,6,8}
	m := newTestManager(t, "sieve-v0-s0", roles(10, 0), 2, DefaultBucketCapacity)

	_, err := m.RunRound(1, activeSet(0))
	require.NoError(t, err)

	// THEN every member of the attacked bucket carries exactly 1/5
	for _, u := range m.Users() {
		if u.ID%2 == 0 {
			assert.InDelta(t, 0.2, u.Suspicion, 1e-12, "user %d", u.ID)
		} else {
			assert.Equal(t, 0.0, u.Suspicion, "user %d", u.ID)
		}
	}
	// AND the sieve moved the three most suspicious users into the small bucket
	small, large := m.Buckets()[0], m.Buckets()[1]
	require.Equal(t, 3, small.Len())
	assert.Equal(t, 7, large.Len())
	for _, u := range small.Members() {
		assert.InDelta(t, 0.2, u.Suspicion, 1e-12)
	}
}

func TestManager_AllKinds_ConserveAndOwnUsers(t *testing.T) {
	for _, name := range ManagerNames() {
		t.Run(name, func(t *testing.T) {
			// GIVEN 100 users, 5 attackers spread over 10 buckets
			m := newTestManager(t, name, roles(100, 3, 17, 42, 58, 91), 10, DefaultBucketCapacity)
			prev := make(map[int]float64)

			for round := 1; round <= 20; round++ {
				active := activeSet(3, 17, 42, 58, 91)
				if round%3 == 0 {
					active = activeSet()
				}
				u, err := m.RunRound(round, active)
				require.NoError(t, err)
				require.NoError(t, m.CheckInvariants())
				assert.GreaterOrEqual(t, u, 0.0)
				assert.LessOrEqual(t, u, 95.0)

				held := 0
				for _, b := range m.Buckets() {
					held += b.Len()
					assert.LessOrEqual(t, b.Len(), b.Capacity)
				}
				assert.Equal(t, 100, held+len(m.Eliminated()), "round %d", round)

				// Suspicion never decreases
				for _, usr := range m.Users() {
					assert.GreaterOrEqual(t, usr.Suspicion, prev[usr.ID])
					prev[usr.ID] = usr.Suspicion
				}
			}
		})
	}
}

func TestManager_ZeroAttackers_NothingChanges(t *testing.T) {
	for _, name := range ManagerNames() {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, name, roles(20), 4, DefaultBucketCapacity)
			before := make([][]int, len(m.Buckets()))
			for i, b := range m.Buckets() {
				before[i] = memberIDs(b)
			}

			for round := 1; round <= 5; round++ {
				u, err := m.RunRound(round, activeSet())
				require.NoError(t, err)
				assert.Equal(t, 20.0, u)
			}

			for i, b := range m.Buckets() {
				assert.Equal(t, before[i], memberIDs(b))
				assert.Equal(t, 5, b.TurnsNotAttacked)
			}
			for _, u := range m.Users() {
				assert.Equal(t, 0.0, u.Suspicion)
			}
			assert.Empty(t, m.Eliminated())
		})
	}
}

func TestManager_Eliminate(t *testing.T) {
	m := newTestManager(t, "sieve-v0-s0", roles(4, 0), 2, DefaultBucketCapacity)
	u := m.Users()[0]

	require.NoError(t, m.Eliminate(u))
	assert.Equal(t, unplaced, u.BucketID())
	assert.Equal(t, []*User{u}, m.Eliminated())
	assert.NoError(t, m.CheckInvariants())

	// Eliminated twice is an invariant breach
	assert.ErrorIs(t, m.Eliminate(u), ErrInvariant)

	// An eliminated user never rejoins a bucket
	assert.ErrorIs(t, m.place(u, m.Buckets(), 0), ErrEliminated)
}

func TestManager_EliminateIsolated_SingletonBucket(t *testing.T) {
	// GIVEN one user per bucket and user 1 attacking
	m := newTestManager(t, "sieve-v0-s0", roles(3, 1), 3, DefaultBucketCapacity)

	u, err := m.RunRound(1, activeSet(1))

	// THEN the culprit is the only possible source and is eliminated
	require.NoError(t, err)
	assert.Equal(t, 2.0, u)
	require.Len(t, m.Eliminated(), 1)
	assert.Equal(t, 1, m.Eliminated()[0].ID)
	assert.NoError(t, m.CheckInvariants())
}

func TestManager_Place_SpillsToNextBucket(t *testing.T) {
	// GIVEN two buckets of capacity 2 and a repartition asking for 4 in the first
	m := newTestManager(t, "sieve-v0-s0", roles(4), 2, 2)
	users := m.liveUsers()

	// WHEN repartitioning
	err := m.repartition(m.Buckets(), users, []int{4, 0})

	// THEN the overflow lands in the second bucket
	require.NoError(t, err)
	assert.Equal(t, 2, m.Buckets()[0].Len())
	assert.Equal(t, 2, m.Buckets()[1].Len())
	assert.NoError(t, m.CheckInvariants())
}

func TestManager_Place_AllFull_CapacityExceeded(t *testing.T) {
	m := newTestManager(t, "sieve-v0-s0", roles(4), 2, 2)

	err := m.place(NewUser(99, RoleBenign), m.Buckets(), 1)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestManager_CheckInvariants_DetectsDoubleOwnership(t *testing.T) {
	m := newTestManager(t, "sieve-v0-s0", roles(4), 2, DefaultBucketCapacity)
	b0, b1 := m.Buckets()[0], m.Buckets()[1]
	// Force a user into both buckets behind AddUser's back.
	b1.members = append(b1.members, b0.members[0])

	assert.ErrorIs(t, m.CheckInvariants(), ErrInvariant)
}

func TestEvenSizes(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, evenSizes(10, 3))
	assert.Equal(t, []int{0, 0}, evenSizes(0, 2))
	assert.Nil(t, evenSizes(5, 0))
}
