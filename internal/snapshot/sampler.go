// Package snapshot provides historical capture listing and bounded sampling.
package snapshot

import (
	"math/rand"
	"sort"

	"github.com/osintworks/trailhound/internal/investigation"
)

// maxSampled caps how many captures are fetched per historical target.
const maxSampled = 5

// Sample reduces a capture list, in any order, to at most five entries: the
// earliest, the latest, and three interior picks drawn without replacement
// from the supplied source. Lists of five or fewer are returned whole. The
// input is never mutated and the result is in chronological order.
func Sample(snaps []investigation.Snapshot, rng *rand.Rand) []investigation.Snapshot {
	sorted := make([]investigation.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	if len(sorted) <= maxSampled {
		return sorted
	}

	interior := len(sorted) - 2
	picks := rng.Perm(interior)[:maxSampled-2]
	sort.Ints(picks)

	out := make([]investigation.Snapshot, 0, maxSampled)
	out = append(out, sorted[0])
	for _, p := range picks {
		out = append(out, sorted[p+1])
	}
	out = append(out, sorted[len(sorted)-1])
	return out
}
