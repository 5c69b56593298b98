package sim

import (
	"slices"
	"sort"
)

// MiadPolicy isolates the most suspicious users in a quarantine of Width buckets.
// Width grows multiplicatively (doubles) on every attacked round and shrinks
// additively (by one) on every calm round. Quarantine buckets are the ones that
// went longest without a calm round, and each holds base/Width users, so a
// wider quarantine means finer isolation of the top of the suspicion ranking.
type MiadPolicy struct {
	Width int
}

// Redistribute implements Policy for MiadPolicy.
func (p *MiadPolicy) Redistribute(m *Manager) error {
	n := len(m.buckets)
	if p.Width < 1 {
		p.Width = 1
	}
	if !m.anyAttacked() {
		p.Width = max(1, p.Width-1)
		return nil
	}
	p.Width = min(p.Width*2, n)

	if _, err := m.eliminateIsolated(); err != nil {
		return err
	}
	users := m.liveUsers()
	if len(users) == 0 {
		return nil
	}
	m.rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	sort.SliceStable(users, func(i, j int) bool { return users[i].Suspicion > users[j].Suspicion })

	order := slices.Clone(m.buckets)
	sort.SliceStable(order, func(i, j int) bool { return order[i].TurnsNotAttacked < order[j].TurnsNotAttacked })

	per := max(1, len(users)/n/p.Width)
	sizes := make([]int, 0, n)
	remaining := len(users)
	for i := 0; i < p.Width; i++ {
		s := min(per, remaining)
		sizes = append(sizes, s)
		remaining -= s
	}
	sizes = append(sizes, evenSizes(remaining, n-p.Width)...)
	return m.repartition(order, users, sizes)
}
