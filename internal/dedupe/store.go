// Package dedupe provides the content-addressed store that prevents
// re-emission of equivalent artifacts.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// HashContent returns the SHA-256 hex digest of normalized content. All
// whitespace runs are removed and the text is lower-cased first, so two
// artifacts differing only in casing or spacing hash identically.
func HashContent(content string) string {
	normalized := whitespaceRuns.ReplaceAllString(strings.ToLower(content), "")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Store is a set of content hashes scoped to one investigation run.
type Store struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{seen: make(map[string]struct{})}
}

// Contains reports whether the hash was already inserted.
func (s *Store) Contains(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[hash]
	return ok
}

// Insert records a hash. Inserting an existing hash is a no-op.
func (s *Store) Insert(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[hash] = struct{}{}
}

// Len returns the number of distinct hashes recorded.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Snapshot returns the recorded hashes in sorted order for checkpointing.
func (s *Store) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.seen))
	for h := range s.seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Restore reloads hashes from a checkpoint.
func (s *Store) Restore(hashes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hashes {
		s.seen[h] = struct{}{}
	}
}
