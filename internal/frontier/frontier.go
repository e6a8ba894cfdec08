// Package frontier implements the prioritized queue of pending investigation
// targets and the visited-key suppression set.
package frontier

import (
	"sort"
	"sync"

	"github.com/osintworks/trailhound/internal/investigation"
)

// Frontier is the mutable priority collection of not-yet-dispatched targets.
// All methods are safe for concurrent use, though the reference controller
// drives it from a single goroutine.
type Frontier struct {
	mu      sync.Mutex
	items   []investigation.Target
	visited map[string]struct{}
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push filters out targets whose VisitedKey is already recorded, appends the
// survivors, and re-sorts the whole frontier descending by priority. The sort
// is stable so equal priorities keep their relative insertion order. It
// returns how many targets were accepted.
func (f *Frontier) Push(targets ...investigation.Target) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	accepted := 0
	for _, t := range targets {
		if _, seen := f.visited[t.VisitedKey()]; seen {
			continue
		}
		f.items = append(f.items, t)
		accepted++
	}
	if accepted > 0 {
		sort.SliceStable(f.items, func(i, j int) bool {
			return f.items[i].Priority > f.items[j].Priority
		})
	}
	return accepted
}

// Pop removes and returns the highest-priority target whose VisitedKey has
// not been recorded since it was pushed; equivalent targets queued before the
// first of them was dispatched are discarded here. The second return is false
// when no dispatchable target remains.
func (f *Frontier) Pop() (investigation.Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.items) > 0 {
		head := f.items[0]
		f.items = f.items[1:]
		if _, seen := f.visited[head.VisitedKey()]; seen {
			continue
		}
		return head, true
	}
	return investigation.Target{}, false
}

// MarkVisited records a key so equivalent targets are suppressed for the rest
// of the run.
func (f *Frontier) MarkVisited(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[key] = struct{}{}
}

// Visited reports whether a key has been recorded.
func (f *Frontier) Visited(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[key]
	return ok
}

// Len returns the number of pending targets.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Remaining returns a copy of the pending targets in priority order, for
// checkpointing.
func (f *Frontier) Remaining() []investigation.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]investigation.Target, len(f.items))
	copy(out, f.items)
	return out
}

// VisitedKeys returns the recorded suppression keys, for checkpointing.
func (f *Frontier) VisitedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.visited))
	for k := range f.visited {
		out = append(out, k)
	}
	return out
}

// RestoreVisited reloads suppression keys from a checkpoint, preserving the
// once-visited-never-revisited invariant across restarts.
func (f *Frontier) RestoreVisited(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.visited[k] = struct{}{}
	}
}
