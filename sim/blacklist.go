package sim

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
)

// Blacklist holds eliminated users. A bloom filter answers most membership
// queries without touching the exact set; positives are confirmed against it.
type Blacklist struct {
	filter *bloom.BloomFilter
	ids    map[int]struct{}
	users  []*User
}

// NewBlacklist sizes the filter for the expected population.
func NewBlacklist(expected int) *Blacklist {
	if expected < 1 {
		expected = 1
	}
	return &Blacklist{
		filter: bloom.NewWithEstimates(uint(expected), 0.01),
		ids:    make(map[int]struct{}, expected/4+1),
	}
}

func blacklistKey(id int) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

// Add records u as eliminated. Returns false if u was already present.
func (b *Blacklist) Add(u *User) bool {
	if b.Contains(u.ID) {
		return false
	}
	b.filter.Add(blacklistKey(u.ID))
	b.ids[u.ID] = struct{}{}
	b.users = append(b.users, u)
	return true
}

// Contains reports whether the user with id has been eliminated.
func (b *Blacklist) Contains(id int) bool {
	if !b.filter.Test(blacklistKey(id)) {
		return false
	}
	_, ok := b.ids[id]
	return ok
}

// Len returns the number of eliminated users.
func (b *Blacklist) Len() int { return len(b.users) }

// Users returns eliminated users in elimination order.
func (b *Blacklist) Users() []*User {
	out := make([]*User, len(b.users))
	copy(out, b.users)
	return out
}
