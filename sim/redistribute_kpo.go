package sim

// KPOPolicy keeps every unattacked bucket as it is and reshuffles the members
// of the attacked buckets uniformly at random, dealing them back round-robin.
// It ignores suspicion entirely and never eliminates; it is the shuffling
// baseline the suspicion-driven policies are measured against.
type KPOPolicy struct{}

// Redistribute implements Policy for KPOPolicy.
func (p *KPOPolicy) Redistribute(m *Manager) error {
	attacked := m.AttackedBuckets()
	if len(attacked) < 2 {
		return nil
	}
	users := membersOf(attacked)
	m.rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	return m.repartition(attacked, users, nil)
}
