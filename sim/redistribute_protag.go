package sim

import (
	"slices"
	"sort"
)

// ProtagPolicy protects trusted users and tags suspicious ones.
//
// After an attacked round it blacklists every user whose suspicion reached
// Threshold (a non-positive threshold disables this), then moves all users with
// zero suspicion into the buckets that have gone longest without attack and
// spreads the suspicious users as thinly as possible over the rest, keeping at
// least one protected bucket.
type ProtagPolicy struct {
	Threshold float64
}

// Redistribute implements Policy for ProtagPolicy.
func (p *ProtagPolicy) Redistribute(m *Manager) error {
	if !m.anyAttacked() {
		return nil
	}
	if _, err := m.eliminateIsolated(); err != nil {
		return err
	}
	if p.Threshold > 0 {
		for _, u := range m.liveUsers() {
			if u.Suspicion >= p.Threshold {
				if err := m.Eliminate(u); err != nil {
					return err
				}
			}
		}
	}

	n := len(m.buckets)
	if n < 2 {
		return nil
	}
	users := m.liveUsers()
	m.rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	var trusted, suspicious []*User
	for _, u := range users {
		if u.Suspicion > 0 {
			suspicious = append(suspicious, u)
		} else {
			trusted = append(trusted, u)
		}
	}
	if len(suspicious) == 0 {
		return nil
	}
	sort.SliceStable(suspicious, func(i, j int) bool { return suspicious[i].Suspicion > suspicious[j].Suspicion })

	// Least safe first: suspicious users go there, protected buckets come last.
	order := slices.Clone(m.buckets)
	sort.SliceStable(order, func(i, j int) bool { return order[i].TurnsNotAttacked < order[j].TurnsNotAttacked })

	spread := min(n-1, len(suspicious))
	sizes := append(evenSizes(len(suspicious), spread), evenSizes(len(trusted), n-spread)...)
	return m.repartition(order, append(suspicious, trusted...), sizes)
}
