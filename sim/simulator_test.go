package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddos-sim/ddos-sim/sim/trace"
)

func newTestConfig(managers ...string) Config {
	cfg := DefaultConfig()
	cfg.Managers = managers
	cfg.LogLevel = "error"
	return cfg
}

func TestNewSimulator_PicksAttackersFromSeed(t *testing.T) {
	cfg := newTestConfig("sieve-v0-s0")
	s, err := NewSimulator(cfg)
	require.NoError(t, err)

	ids := s.AttackerIDs()
	assert.Len(t, ids, cfg.Attackers)
	assert.IsIncreasing(t, ids)
	m := s.Manager("sieve-v0-s0")
	require.NotNil(t, m)
	attackers := 0
	for _, u := range m.Users() {
		if u.IsAttacker() {
			attackers++
		}
	}
	assert.Equal(t, cfg.Attackers, attackers)
	assert.Nil(t, s.Manager("kpo"))
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	cfg := newTestConfig("sieve-v9-s0")
	_, err := NewSimulator(cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSimulator_SameSeed_SameResult(t *testing.T) {
	// GIVEN two simulators over the same scenario
	cfg := newTestConfig(ManagerNames()...)
	cfg.Attacker = "random"
	a, err := NewSimulator(cfg)
	require.NoError(t, err)
	b, err := NewSimulator(cfg)
	require.NoError(t, err)

	// WHEN both run
	ua, err := a.Run(cfg.Rounds, false)
	require.NoError(t, err)
	ub, err := b.Run(cfg.Rounds, false)
	require.NoError(t, err)

	// THEN results match exactly, run IDs do not
	assert.Equal(t, ua, ub)
	for _, name := range cfg.Managers {
		assert.Equal(t, a.UtilitySeries(name), b.UtilitySeries(name), name)
	}
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSimulator_ManagersShareInitialAssignment(t *testing.T) {
	s, err := NewSimulator(newTestConfig("sieve-v0-s0", "kpo", "protag"))
	require.NoError(t, err)

	ref := s.Managers()[0].Buckets()
	for _, m := range s.Managers()[1:] {
		for i, b := range m.Buckets() {
			assert.Equal(t, memberIDs(ref[i]), memberIDs(b), "%s bucket %d", m.Name(), i)
		}
	}
}

func TestSimulator_ZeroAttackers_FullUtility(t *testing.T) {
	cfg := newTestConfig(ManagerNames()...)
	cfg.GoodUsers = 100
	cfg.Attackers = 0
	s, err := NewSimulator(cfg)
	require.NoError(t, err)

	utilities, err := s.Run(10, false)

	require.NoError(t, err)
	for name, u := range utilities {
		assert.Equal(t, 1000.0, u, name)
	}
	for _, m := range s.Managers() {
		for _, usr := range m.Users() {
			assert.Equal(t, 0.0, usr.Suspicion)
		}
	}
}

func TestSimulator_SieveAtLeastBounded(t *testing.T) {
	// GIVEN 10 buckets of 10 users, 5% attackers and a bounded manager
	// allowed a single redistribution pass
	var sieve, bounded float64
	for seed := int64(1); seed <= 5; seed++ {
		cfg := newTestConfig("sieve-v0-s0", "bounded")
		cfg.GoodUsers, cfg.Attackers, cfg.NumBuckets = 95, 5, 10
		cfg.BoundedBudget = 1
		cfg.Seed = seed
		s, err := NewSimulator(cfg)
		require.NoError(t, err)

		utilities, err := s.Run(10, false)
		require.NoError(t, err)
		sieve += utilities["sieve-v0-s0"]
		bounded += utilities["bounded"]

		// Both run the same first pass, so the first two rounds agree.
		assert.Equal(t, s.UtilitySeries("sieve-v0-s0")[:2], s.UtilitySeries("bounded")[:2], "seed %d", seed)
	}

	// THEN the unconstrained sieve serves at least as many benign users
	assert.GreaterOrEqual(t, sieve, bounded)
}

func TestSimulator_Run_Twice_Panics(t *testing.T) {
	s, err := NewSimulator(newTestConfig("kpo"))
	require.NoError(t, err)
	_, err = s.Run(1, false)
	require.NoError(t, err)

	assert.Panics(t, func() { _, _ = s.Run(1, false) })
}

func TestSimulator_Run_NegativeRounds(t *testing.T) {
	s, err := NewSimulator(newTestConfig("kpo"))
	require.NoError(t, err)

	_, err = s.Run(-1, false)

	assert.ErrorIs(t, err, ErrConfig)
}

func TestSimulator_Run_ZeroRounds(t *testing.T) {
	s, err := NewSimulator(newTestConfig("kpo", "miad"))
	require.NoError(t, err)

	utilities, err := s.Run(0, false)

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"kpo": 0, "miad": 0}, utilities)
}

func TestSimulator_GraphTrials_CapturesEveryRound(t *testing.T) {
	// GIVEN graphing enabled
	cfg := newTestConfig("sieve-v1-s2", "protag")
	s, err := NewSimulator(cfg)
	require.NoError(t, err)

	// WHEN running 4 rounds
	_, err = s.Run(4, true)
	require.NoError(t, err)

	// THEN each manager has the initial state plus one snapshot per round
	for _, name := range cfg.Managers {
		rec := s.Trace(name)
		require.NotNil(t, rec, name)
		require.Len(t, rec.Snapshots, 5)
		assert.Equal(t, 0, rec.Snapshots[0].Round)
		assert.Equal(t, 0.0, rec.Snapshots[0].Utility)
		series := s.UtilitySeries(name)
		for r := 1; r <= 4; r++ {
			snap := rec.Snapshots[r]
			assert.Equal(t, r, snap.Round)
			assert.Equal(t, series[r-1], snap.Utility)
			assert.Len(t, snap.Users, cfg.Population())
			assert.Len(t, snap.Buckets, cfg.NumBuckets)
		}
	}
}

func TestSimulator_NoGraphTrials_NoTrace(t *testing.T) {
	s, err := NewSimulator(newTestConfig("kpo"))
	require.NoError(t, err)
	_, err = s.Run(2, false)
	require.NoError(t, err)

	assert.Nil(t, s.Trace("kpo"))
}

func TestSimulator_Snapshot_EliminatedUserOffStage(t *testing.T) {
	// GIVEN one user per bucket, so the attacker is isolated from the start
	cfg := newTestConfig("sieve-v0-s0")
	cfg.GoodUsers, cfg.Attackers, cfg.NumBuckets = 3, 1, 4
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	attacker := s.AttackerIDs()[0]

	_, err = s.Run(1, true)
	require.NoError(t, err)

	// THEN before the round it sits in a bucket, after it is off stage
	snaps := s.Trace("sieve-v0-s0").Snapshots
	require.Len(t, snaps, 2)
	before, after := snaps[0].Users[attacker], snaps[1].Users[attacker]
	assert.False(t, before.Eliminated)
	assert.GreaterOrEqual(t, before.BucketID, 0)
	assert.Equal(t, 0.0, before.Suspicion)

	assert.True(t, after.Eliminated)
	assert.Equal(t, -1, after.BucketID)
	assert.Equal(t, trace.OffStageX, after.X)
	assert.Equal(t, trace.OffStageY, after.Y)
	assert.Equal(t, 0.0, after.Suspicion)
	assert.Equal(t, 3.0, snaps[1].Utility)
}

func TestSnapshot_PositionsFollowBucketAndSlot(t *testing.T) {
	m := newTestManager(t, "kpo", roles(6, 0), 2, DefaultBucketCapacity)

	snap := Snapshot(m, 0)

	// user 4 is the third member of bucket 0
	u := snap.Users[4]
	assert.Equal(t, 0, u.BucketID)
	assert.Equal(t, 2, u.Slot)
	assert.Equal(t, trace.BucketCenter(0), u.X)
	assert.Equal(t, trace.SlotY(2), u.Y)
	assert.Equal(t, []int{1, 3, 5}, snap.Buckets[1].Members)
}

func TestSimulator_Metrics_TrackRounds(t *testing.T) {
	s, err := NewSimulator(newTestConfig("sieve-v0-s0", "kpo"))
	require.NoError(t, err)

	utilities, err := s.Run(5, false)
	require.NoError(t, err)

	mt := s.Metrics()
	for name, u := range utilities {
		assert.Equal(t, 5.0, testutilValue(t, mt.rounds.WithLabelValues(name)), name)
		assert.Equal(t, u, testutilValue(t, mt.utility.WithLabelValues(name)), name)
	}
}
