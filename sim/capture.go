package sim

import "github.com/ddos-sim/ddos-sim/sim/trace"

// Snapshot builds a read-only view of m's current state: per bucket the ordered
// member IDs, per user its position and suspicion. Eliminated users are placed
// off-stage with zero suspicion. m is not modified.
func Snapshot(m *Manager, utility float64) trace.RoundSnapshot {
	snap := trace.RoundSnapshot{
		Round:   m.Round(),
		Manager: m.Name(),
		Utility: utility,
		Buckets: make([]trace.BucketRecord, len(m.buckets)),
		Users:   make([]trace.UserRecord, len(m.users)),
	}
	placed := make(map[int]trace.UserRecord, len(m.users))
	for i, b := range m.buckets {
		ids := make([]int, len(b.members))
		for slot, u := range b.members {
			ids[slot] = u.ID
			placed[u.ID] = trace.UserRecord{
				ID:        u.ID,
				Attacker:  u.IsAttacker(),
				BucketID:  b.ID,
				Slot:      slot,
				X:         trace.BucketCenter(i),
				Y:         trace.SlotY(slot),
				Suspicion: u.Suspicion,
			}
		}
		snap.Buckets[i] = trace.BucketRecord{
			ID:               b.ID,
			Attacked:         b.Attacked,
			TurnsNotAttacked: b.TurnsNotAttacked,
			Members:          ids,
		}
	}
	for i, u := range m.users {
		rec, ok := placed[u.ID]
		if !ok {
			rec = trace.UserRecord{
				ID:         u.ID,
				Attacker:   u.IsAttacker(),
				BucketID:   unplaced,
				Slot:       -1,
				X:          trace.OffStageX,
				Y:          trace.OffStageY,
				Eliminated: true,
			}
		}
		snap.Users[i] = rec
	}
	return snap
}
