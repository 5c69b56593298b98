package sim

import "fmt"

// Role distinguishes legitimate users from attackers. Fixed for the whole run.
type Role string

const (
	RoleBenign   Role = "benign"
	RoleAttacker Role = "attacker"
)

// unplaced is the bucket key of a user that no bucket holds (eliminated, or mid-redistribution).
const unplaced = -1

// User is a single actor in the simulation.
// Suspicion only ever grows: it is raised by the holding bucket while that bucket is attacked.
type User struct {
	ID        int
	Role      Role
	Suspicion float64

	// bucket is a lookup key into the owning manager's bucket slice.
	// Membership itself is owned by Bucket; this is never a second ownership path.
	bucket int
}

// NewUser creates an unplaced user with zero suspicion.
func NewUser(id int, role Role) *User {
	return &User{ID: id, Role: role, bucket: unplaced}
}

// IsAttacker reports whether the user's role is RoleAttacker.
func (u *User) IsAttacker() bool {
	return u.Role == RoleAttacker
}

// BucketID returns the ID of the bucket currently holding the user, or -1.
func (u *User) BucketID() int {
	return u.bucket
}

// clone returns an unplaced copy with the same identity, role and suspicion.
// Each manager under test works on its own clones of the population.
func (u *User) clone() *User {
	return &User{ID: u.ID, Role: u.Role, Suspicion: u.Suspicion, bucket: unplaced}
}

func (u *User) String() string {
	return fmt.Sprintf("%s#%d(%.2f)", u.Role, u.ID, u.Suspicion)
}
