package investigation

import (
	"context"
	"time"
)

// Fetcher fetches a locator and returns the page body plus metadata. A nil
// error with an empty body also counts as a failed fetch.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (Page, error)
}

// Archive lists historical snapshots for a URL. An empty list means no
// history is available.
type Archive interface {
	Snapshots(ctx context.Context, url string, fromYear, toYear int) ([]Snapshot, error)
}

// Searcher runs a keyword query against the search collaborator and returns
// result URLs.
type Searcher interface {
	Search(ctx context.Context, keywords []string, maxResults int) ([]string, error)
}

// Consultation carries the context handed to the advisory collaborator when
// asking for new targets.
type Consultation struct {
	Objective   string
	Entity      string
	Discoveries []Discovery
	Aliases     []string
	// Idle is set when the frontier ran dry and the consultation covers the
	// whole discovery history instead of one iteration.
	Idle bool
	// IsVisited suppresses suggestions whose VisitedKey was already recorded.
	IsVisited func(key string) bool
}

// Advisor is the advisory oracle consulted for strategy, new targets, and the
// final narrative summary. Implementations must degrade malformed responses
// to empty results, never errors that abort the loop.
type Advisor interface {
	Strategy(ctx context.Context, objective, entity string) (Strategy, error)
	NextTargets(ctx context.Context, cons Consultation) ([]Target, error)
	Summarize(ctx context.Context, objective string, top []Discovery, aliases []string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
