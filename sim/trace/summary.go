package trace

// Summary aggregates statistics from a Recorder.
type Summary struct {
	Rounds             int
	AttackedPerRound   []int
	TotalUtility       float64
	EliminatedAttacker int // at the last snapshot
	EliminatedBenign   int // at the last snapshot
	MaxSuspicion       float64
}

// Summarize computes aggregate statistics from a Recorder.
// Safe for nil or empty recorders (returns zero-value fields).
func Summarize(r *Recorder) *Summary {
	summary := &Summary{}
	if r == nil || len(r.Snapshots) == 0 {
		return summary
	}

	summary.Rounds = len(r.Snapshots)
	summary.AttackedPerRound = make([]int, 0, len(r.Snapshots))
	for _, s := range r.Snapshots {
		attacked := 0
		for _, b := range s.Buckets {
			if b.Attacked {
				attacked++
			}
		}
		summary.AttackedPerRound = append(summary.AttackedPerRound, attacked)
		summary.TotalUtility += s.Utility
		for _, u := range s.Users {
			if u.Suspicion > summary.MaxSuspicion {
				summary.MaxSuspicion = u.Suspicion
			}
		}
	}

	for _, u := range r.Snapshots[len(r.Snapshots)-1].Users {
		if !u.Eliminated {
			continue
		}
		if u.Attacker {
			summary.EliminatedAttacker++
		} else {
			summary.EliminatedBenign++
		}
	}
	return summary
}
