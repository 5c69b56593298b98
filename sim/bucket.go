package sim

import (
	"fmt"
	"slices"
)

// DefaultBucketCapacity is effectively unbounded.
const DefaultBucketCapacity = 100000000

// Bucket is a fixed-capacity service unit. It is the sole owner of its members.
type Bucket struct {
	ID       int
	Capacity int

	// Attacked is recomputed every round from current membership and the round's workload.
	Attacked bool
	// TurnsNotAttacked counts consecutive rounds without attack; reset to 0 on attack.
	TurnsNotAttacked int

	members []*User
}

// NewBucket creates a bucket holding users. More initial users than capacity
// (or a capacity below 1) is a configuration error.
func NewBucket(id, capacity int, users ...*User) (*Bucket, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("bucket %d: capacity must be >= 1, got %d: %w", id, capacity, ErrConfig)
	}
	if len(users) > capacity {
		return nil, fmt.Errorf("bucket %d: %d initial users over capacity %d: %w", id, len(users), capacity, ErrConfig)
	}
	b := &Bucket{ID: id, Capacity: capacity, members: make([]*User, 0, len(users))}
	for _, u := range users {
		if err := b.AddUser(u); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddUser inserts u and points its back-reference at this bucket.
// Returns ErrCapacityExceeded when the bucket is full and ErrInvariant when
// u is still held by another bucket.
func (b *Bucket) AddUser(u *User) error {
	if u.bucket != unplaced {
		return fmt.Errorf("bucket %d: user %d still held by bucket %d: %w", b.ID, u.ID, u.bucket, ErrInvariant)
	}
	if len(b.members) >= b.Capacity {
		return fmt.Errorf("bucket %d (capacity %d): %w", b.ID, b.Capacity, ErrCapacityExceeded)
	}
	b.members = append(b.members, u)
	u.bucket = b.ID
	return nil
}

// RemoveUser drops u from the bucket. Reports whether u was a member.
func (b *Bucket) RemoveUser(u *User) bool {
	i := slices.Index(b.members, u)
	if i < 0 {
		return false
	}
	b.members = slices.Delete(b.members, i, i+1)
	u.bucket = unplaced
	return true
}

// reset empties the bucket, leaving every former member unplaced.
func (b *Bucket) reset() []*User {
	out := b.members
	for _, u := range out {
		u.bucket = unplaced
	}
	b.members = make([]*User, 0, len(out))
	return out
}

// Len returns the number of members.
func (b *Bucket) Len() int { return len(b.members) }

// Members returns a copy of the member list in insertion order.
func (b *Bucket) Members() []*User { return slices.Clone(b.members) }

// UpdateSuspicion raises every member's suspicion by fn(|members|) when the bucket
// is attacked. With SuspicionLinear one attacked round spreads exactly one unit
// of suspicion over the bucket. No-op otherwise.
func (b *Bucket) UpdateSuspicion(fn SuspicionFunc) {
	if !b.Attacked || len(b.members) == 0 {
		return
	}
	delta := fn(len(b.members))
	for _, u := range b.members {
		u.Suspicion += delta
	}
}

// markAttacked records this round's detection result.
func (b *Bucket) markAttacked(attacked bool) {
	b.Attacked = attacked
	if attacked {
		b.TurnsNotAttacked = 0
	} else {
		b.TurnsNotAttacked++
	}
}

// holdsActive reports whether any member is attacking this round.
func (b *Bucket) holdsActive(active map[int]bool) bool {
	for _, u := range b.members {
		if active[u.ID] {
			return true
		}
	}
	return false
}

// benignCount returns the number of benign members.
func (b *Bucket) benignCount() int {
	n := 0
	for _, u := range b.members {
		if !u.IsAttacker() {
			n++
		}
	}
	return n
}

func (b *Bucket) String() string {
	return fmt.Sprintf("bucket_%d%v", b.ID, b.members)
}
