package sim

import "sort"

// SievePolicy re-ranks the members of a candidate set of buckets by suspicion
// and refills the candidates so the most suspicious users land in a minority of
// half-size buckets, while the least suspicious share the remaining ones.
//
// Version 0 resorts every bucket; version 1 only the buckets attacked this round.
// Sieve variants differ in nothing else but the manager's suspicion function.
type SievePolicy struct {
	Version int
}

// Redistribute implements Policy for SievePolicy.
func (p *SievePolicy) Redistribute(m *Manager) error {
	if !m.anyAttacked() {
		return nil
	}
	if _, err := m.eliminateIsolated(); err != nil {
		return err
	}
	return sievePass(m, p.candidates(m))
}

func (p *SievePolicy) candidates(m *Manager) []*Bucket {
	if p.Version == 1 {
		return m.AttackedBuckets()
	}
	return m.buckets
}

// sievePass needs at least two candidates: with one there is nothing to sieve into.
func sievePass(m *Manager, candidates []*Bucket) error {
	if len(candidates) < 2 {
		return nil
	}
	users := membersOf(candidates)
	// Shuffle first so equal suspicion is broken randomly but reproducibly.
	m.rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	sort.SliceStable(users, func(i, j int) bool { return users[i].Suspicion > users[j].Suspicion })
	return m.repartition(candidates, users, sieveSizes(len(users), len(candidates)))
}

// sieveSizes gives the first k/2 buckets ceil(n/2k) users each and splits the
// rest evenly over the remaining buckets.
func sieveSizes(n, k int) []int {
	if k <= 0 {
		return nil
	}
	half := k / 2
	small := (n + 2*k - 1) / (2 * k)
	sizes := make([]int, 0, k)
	remaining := n
	for i := 0; i < half; i++ {
		s := min(small, remaining)
		sizes = append(sizes, s)
		remaining -= s
	}
	return append(sizes, evenSizes(remaining, k-half)...)
}
