package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"
)

// Policy is the variant-specific redistribution step of a Manager.
// Implementations may only move users between buckets or eliminate them;
// they must never drop or fabricate a user.
type Policy interface {
	Redistribute(m *Manager) error
}

// Manager owns a disjoint partition of one population copy into buckets and
// advances it one round at a time: detect, update suspicion, account utility,
// redistribute.
//
// Invariant at every round boundary: Σ|bucket members| + |eliminated| == population,
// and every live user is held by exactly one bucket whose ID matches its back-reference.
type Manager struct {
	spec      ManagerSpec
	policy    Policy
	suspicion SuspicionFunc

	buckets   []*Bucket
	users     []*User
	blacklist *Blacklist
	rng       *rand.Rand
	log       *logrus.Entry

	round int
}

// NewManager builds the manager described by spec over its own copy of population.
// order is a permutation of population indices; users are dealt round-robin over
// numBuckets buckets in that order. The log entry may be nil.
func NewManager(spec ManagerSpec, population []*User, order []int, numBuckets, capacity int,
	rng *rand.Rand, log *logrus.Entry) (*Manager, error) {
	if numBuckets < 1 {
		return nil, fmt.Errorf("manager %s: need at least one bucket: %w", spec.Name, ErrConfig)
	}
	if len(order) != len(population) {
		return nil, fmt.Errorf("manager %s: order has %d entries for %d users: %w",
			spec.Name, len(order), len(population), ErrConfig)
	}
	fn, err := SuspicionFuncFor(spec.SuspicionFunc)
	if err != nil {
		return nil, fmt.Errorf("manager %s: %w", spec.Name, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	m := &Manager{
		spec:      spec,
		policy:    NewPolicy(spec),
		suspicion: fn,
		buckets:   make([]*Bucket, numBuckets),
		users:     make([]*User, len(population)),
		blacklist: NewBlacklist(len(population)),
		rng:       rng,
		log:       log.WithField("manager", spec.Name),
	}
	for i, u := range population {
		m.users[i] = u.clone()
	}
	for i := range m.buckets {
		b, err := NewBucket(i, capacity)
		if err != nil {
			return nil, err
		}
		m.buckets[i] = b
	}
	for i, idx := range order {
		if err := m.buckets[i%numBuckets].AddUser(m.users[idx]); err != nil {
			return nil, fmt.Errorf("manager %s: initial assignment: %w", spec.Name, err)
		}
	}
	return m, m.CheckInvariants()
}

// Name returns the canonical manager name.
func (m *Manager) Name() string { return m.spec.Name }

// Spec returns the strategy tag this manager was built from.
func (m *Manager) Spec() ManagerSpec { return m.spec }

// Buckets returns the manager's buckets in ID order. The slice is shared; callers must not mutate it.
func (m *Manager) Buckets() []*Bucket { return m.buckets }

// Users returns the whole population, eliminated users included.
func (m *Manager) Users() []*User { return m.users }

// Eliminated returns eliminated users in elimination order.
func (m *Manager) Eliminated() []*User { return m.blacklist.Users() }

// Round returns the last round run, 0 before the first.
func (m *Manager) Round() int { return m.round }

// RunRound advances the manager through one round. active holds the IDs of
// users attacking this round. Returns the round's utility: the number of benign
// users served, i.e. held by a bucket that was not attacked this round.
func (m *Manager) RunRound(round int, active map[int]bool) (float64, error) {
	m.round = round

	// DetectAttacked
	for _, b := range m.buckets {
		b.markAttacked(b.holdsActive(active))
	}
	// UpdateSuspicion
	for _, b := range m.buckets {
		b.UpdateSuspicion(m.suspicion)
	}
	// Utility is fixed by this round's detection, before anyone moves.
	utility := 0
	for _, b := range m.buckets {
		if !b.Attacked {
			utility += b.benignCount()
		}
	}
	// Redistribute
	if err := m.policy.Redistribute(m); err != nil {
		return 0, fmt.Errorf("manager %s round %d: %w", m.spec.Name, round, err)
	}
	if err := m.CheckInvariants(); err != nil {
		return 0, fmt.Errorf("manager %s round %d: %w", m.spec.Name, round, err)
	}
	m.log.Debugf("round %d: utility=%d attacked=%d eliminated=%d",
		round, utility, len(m.AttackedBuckets()), m.blacklist.Len())
	return float64(utility), nil
}

// AttackedBuckets returns the buckets flagged attacked this round, in ID order.
func (m *Manager) AttackedBuckets() []*Bucket {
	var out []*Bucket
	for _, b := range m.buckets {
		if b.Attacked {
			out = append(out, b)
		}
	}
	return out
}

func (m *Manager) anyAttacked() bool {
	return slices.ContainsFunc(m.buckets, func(b *Bucket) bool { return b.Attacked })
}

// liveUsers returns every user still held by a bucket, in bucket order.
func (m *Manager) liveUsers() []*User {
	return membersOf(m.buckets)
}

func membersOf(buckets []*Bucket) []*User {
	var out []*User
	for _, b := range buckets {
		out = append(out, b.members...)
	}
	return out
}

// Eliminate removes u from circulation permanently.
func (m *Manager) Eliminate(u *User) error {
	if m.blacklist.Contains(u.ID) {
		return fmt.Errorf("user %d eliminated twice: %w", u.ID, ErrInvariant)
	}
	if u.bucket == unplaced || u.bucket >= len(m.buckets) || !m.buckets[u.bucket].RemoveUser(u) {
		return fmt.Errorf("eliminating user %d: not held by bucket %d: %w", u.ID, u.bucket, ErrInvariant)
	}
	m.blacklist.Add(u)
	m.log.Debugf("round %d: eliminated %s", m.round, u)
	return nil
}

// eliminateIsolated eliminates the sole member of every attacked single-user
// bucket: with one occupant the attack can only come from that user.
func (m *Manager) eliminateIsolated() (int, error) {
	n := 0
	for _, b := range m.buckets {
		if b.Attacked && b.Len() == 1 {
			if err := m.Eliminate(b.members[0]); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// repartition empties candidates and refills them with users in order:
// candidates[i] receives the next sizes[i] users. Users beyond Σsizes are dealt
// round-robin. A full bucket hands its user on to the next candidate with room.
func (m *Manager) repartition(candidates []*Bucket, users []*User, sizes []int) error {
	if len(candidates) == 0 {
		if len(users) > 0 {
			return fmt.Errorf("repartition: %d users and no buckets: %w", len(users), ErrInvariant)
		}
		return nil
	}
	for _, b := range candidates {
		b.reset()
	}
	next := 0
	for i := range candidates {
		for n := 0; i < len(sizes) && n < sizes[i] && next < len(users); n++ {
			if err := m.place(users[next], candidates, i); err != nil {
				return err
			}
			next++
		}
	}
	for j := 0; next < len(users); j++ {
		if err := m.place(users[next], candidates, j%len(candidates)); err != nil {
			return err
		}
		next++
	}
	return nil
}

// place adds u to candidates[start], falling through to the following candidates
// (wrapping) on ErrCapacityExceeded.
func (m *Manager) place(u *User, candidates []*Bucket, start int) error {
	if m.blacklist.Contains(u.ID) {
		return fmt.Errorf("placing user %d: %w", u.ID, ErrEliminated)
	}
	for k := range candidates {
		b := candidates[(start+k)%len(candidates)]
		err := b.AddUser(u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			return err
		}
		if k == 0 {
			m.log.Debugf("round %d: bucket %d full, spilling user %d", m.round, b.ID, u.ID)
		}
	}
	return fmt.Errorf("placing user %d: every candidate bucket is full: %w", u.ID, ErrCapacityExceeded)
}

// CheckInvariants verifies population conservation and single ownership.
func (m *Manager) CheckInvariants() error {
	seen := make(map[int]int, len(m.users))
	held := 0
	for _, b := range m.buckets {
		if b.Len() > b.Capacity {
			return fmt.Errorf("bucket %d holds %d over capacity %d: %w", b.ID, b.Len(), b.Capacity, ErrInvariant)
		}
		for _, u := range b.members {
			if prev, dup := seen[u.ID]; dup {
				return fmt.Errorf("user %d held by buckets %d and %d: %w", u.ID, prev, b.ID, ErrInvariant)
			}
			if u.bucket != b.ID {
				return fmt.Errorf("user %d in bucket %d points at %d: %w", u.ID, b.ID, u.bucket, ErrInvariant)
			}
			if m.blacklist.Contains(u.ID) {
				return fmt.Errorf("eliminated user %d back in bucket %d: %w", u.ID, b.ID, ErrInvariant)
			}
			seen[u.ID] = b.ID
			held++
		}
	}
	if held+m.blacklist.Len() != len(m.users) {
		return fmt.Errorf("%d held + %d eliminated != %d users: %w",
			held, m.blacklist.Len(), len(m.users), ErrInvariant)
	}
	return nil
}

// evenSizes splits n users over k buckets as evenly as possible, larger shares first.
func evenSizes(n, k int) []int {
	if k <= 0 {
		return nil
	}
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}
