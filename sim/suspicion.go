package sim

import (
	"fmt"
	"math"
)

// SuspicionFunc returns the suspicion added to each member of an attacked bucket
// holding n users. Implementations must be non-negative for n >= 1.
type SuspicionFunc func(n int) float64

// SuspicionLinear spreads exactly one unit over the bucket.
func SuspicionLinear(n int) float64 { return 1 / float64(n) }

// SuspicionConcentrated decays with the square of the bucket size, so small
// attacked buckets pull far ahead of large ones.
func SuspicionConcentrated(n int) float64 { return 1 / float64(n*n) }

// SuspicionDiffuse decays with the square root of the bucket size.
func SuspicionDiffuse(n int) float64 { return 1 / math.Sqrt(float64(n)) }

// suspicionFuncs is indexed by the selector used in manager names (s0, s1, s2).
var suspicionFuncs = []SuspicionFunc{SuspicionLinear, SuspicionConcentrated, SuspicionDiffuse}

// SuspicionFuncNames is the human-readable label of each selector.
var SuspicionFuncNames = []string{"linear", "concentrated", "diffuse"}

// SuspicionFuncFor returns the suspicion function for selector idx.
func SuspicionFuncFor(idx int) (SuspicionFunc, error) {
	if idx < 0 || idx >= len(suspicionFuncs) {
		return nil, fmt.Errorf("unknown suspicion function %d: %w", idx, ErrConfig)
	}
	return suspicionFuncs[idx], nil
}
