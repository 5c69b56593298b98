package sim

import "errors"

// Error kinds returned by the simulation core. Callers match them with errors.Is;
// the returned errors wrap these with the offending bucket, user or field.
var (
	// ErrConfig marks an invalid scenario or construction parameter. Fatal for the run.
	ErrConfig = errors.New("invalid configuration")

	// ErrCapacityExceeded is returned when a bucket is already at capacity.
	// Redistribution recovers by trying another bucket.
	ErrCapacityExceeded = errors.New("bucket capacity exceeded")

	// ErrInvariant marks a broken population invariant (lost user, double ownership,
	// stale back-reference). Always a defect.
	ErrInvariant = errors.New("population invariant violated")

	// ErrEliminated is returned when an eliminated user would be placed into a bucket again.
	ErrEliminated = errors.New("user is eliminated")
)
