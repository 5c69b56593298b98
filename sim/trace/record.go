// Package trace provides per-round snapshot records for visualization collaborators.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Off-stage position given to eliminated users.
const (
	OffStageX = -10.0
	OffStageY = -10.0
)

// Layout constants for placing users inside bucket columns.
const (
	UserRadius    = 0.5
	UserPadding   = 0.25
	BucketPadding = 0.5
)

// UserLength is the vertical space taken by one user.
func UserLength() float64 { return 2*UserRadius + 2*UserPadding }

// BucketWidth is the horizontal space taken by one bucket column, padding included.
func BucketWidth() float64 { return UserLength() + 2*BucketPadding }

// BucketCenter returns the x coordinate of the center of the bucket column at index.
func BucketCenter(index int) float64 {
	return float64(index)*BucketWidth() + BucketWidth()/2
}

// SlotY returns the y coordinate of the user at slot (0-based) within a bucket column.
func SlotY(slot int) float64 {
	return UserPadding + UserRadius + float64(slot)*(UserLength()+UserPadding)
}

// UserRecord captures one user's state at the end of a round.
type UserRecord struct {
	ID         int     `json:"id"`
	Attacker   bool    `json:"attacker"`
	BucketID   int     `json:"bucket_id"` // -1 when eliminated
	Slot       int     `json:"slot"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Suspicion  float64 `json:"suspicion"`
	Eliminated bool    `json:"eliminated"`
}

// BucketRecord captures one bucket's state at the end of a round.
type BucketRecord struct {
	ID               int   `json:"id"`
	Attacked         bool  `json:"attacked"`
	TurnsNotAttacked int   `json:"turns_not_attacked"`
	Members          []int `json:"members"` // user IDs in slot order
}

// RoundSnapshot is everything a visualization needs about one round of one manager.
type RoundSnapshot struct {
	Round   int            `json:"round"`
	Manager string         `json:"manager"`
	Utility float64        `json:"utility"`
	Buckets []BucketRecord `json:"buckets"`
	Users   []UserRecord   `json:"users"`
}
