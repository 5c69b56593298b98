package sim

// BoundedPolicy runs the version-0 sieve pass at most Budget times per run.
// Once the budget is spent the manager freezes: nobody moves or is eliminated again.
type BoundedPolicy struct {
	Budget int
	used   int
}

// Redistribute implements Policy for BoundedPolicy.
func (p *BoundedPolicy) Redistribute(m *Manager) error {
	if p.used >= p.Budget || !m.anyAttacked() {
		return nil
	}
	p.used++
	if p.used == p.Budget {
		m.log.Debugf("round %d: redistribution budget of %d spent", m.round, p.Budget)
	}
	return (&SievePolicy{Version: 0}).Redistribute(m)
}

// Remaining returns the number of passes left.
func (p *BoundedPolicy) Remaining() int {
	return max(0, p.Budget-p.used)
}
