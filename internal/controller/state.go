package controller

import (
	"strings"
	"sync"
	"time"

	"github.com/osintworks/trailhound/internal/investigation"
)

// snapshotState holds the mutable run state shared between the loop
// goroutine and the status server's readers.
type snapshotState struct {
	mu          sync.Mutex
	name        string
	iter        int
	idle        int
	started     time.Time
	discoveries []investigation.Discovery
	aliases     []string
	report      *investigation.Report
}

func (s *snapshotState) setState(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *snapshotState) stateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// nextIteration advances and returns the iteration counter.
func (s *snapshotState) nextIteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iter++
	return s.iter
}

func (s *snapshotState) iteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iter
}

func (s *snapshotState) addIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle++
}

func (s *snapshotState) resetIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = 0
}

func (s *snapshotState) idleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

func (s *snapshotState) setStarted(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = t
}

func (s *snapshotState) startedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *snapshotState) appendDiscoveries(list []investigation.Discovery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoveries = append(s.discoveries, list...)
}

func (s *snapshotState) discoveriesCopy() []investigation.Discovery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]investigation.Discovery, len(s.discoveries))
	copy(out, s.discoveries)
	return out
}

func (s *snapshotState) discoveryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.discoveries)
}

// addAlias records a newly identified alias. Returns false for duplicates.
func (s *snapshotState) addAlias(alias string) bool {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.aliases {
		if strings.EqualFold(existing, alias) {
			return false
		}
	}
	s.aliases = append(s.aliases, alias)
	return true
}

func (s *snapshotState) aliasesCopy() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.aliases))
	copy(out, s.aliases)
	return out
}

// matchesAlias reports whether content mentions any known alias.
func (s *snapshotState) matchesAlias(content string) bool {
	lowered := strings.ToLower(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, alias := range s.aliases {
		if strings.Contains(lowered, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func (s *snapshotState) setReport(r investigation.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &r
}

func (s *snapshotState) reportCopy() (investigation.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return investigation.Report{}, false
	}
	return *s.report, true
}
