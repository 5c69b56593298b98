package trace

// Recorder collects round snapshots of a single manager in capture order.
type Recorder struct {
	Manager   string          `json:"manager"`
	Snapshots []RoundSnapshot `json:"snapshots"`
}

// NewRecorder creates a Recorder ready for capture.
func NewRecorder(manager string) *Recorder {
	return &Recorder{
		Manager:   manager,
		Snapshots: make([]RoundSnapshot, 0),
	}
}

// Record appends a snapshot.
func (r *Recorder) Record(s RoundSnapshot) {
	r.Snapshots = append(r.Snapshots, s)
}

// UserTrace returns one user's records across all captured rounds, the per-user
// position/suspicion trace an animation interpolates over.
func (r *Recorder) UserTrace(id int) []UserRecord {
	var out []UserRecord
	for _, s := range r.Snapshots {
		for _, u := range s.Users {
			if u.ID == id {
				out = append(out, u)
				break
			}
		}
	}
	return out
}
