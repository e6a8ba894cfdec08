// Package extract implements the artifact extraction and scoring engine.
//
// Extraction is a set of independent passes over one fetched document. Each
// pass emits typed candidate artifacts; duplicates within the document are
// dropped via a caller-supplied seen-hash set, and every candidate is scored
// by an immutable Policy injected at construction time.
package extract

import (
	"strings"

	"github.com/osintworks/trailhound/internal/investigation"
)

// Weights holds the additive scoring constants. They are configuration, not
// engine logic, so per-run tuning never touches extraction code.
type Weights struct {
	TrustedDomain   int `mapstructure:"trusted_domain"`
	OrgDomain       int `mapstructure:"org_domain"`
	CommunityDomain int `mapstructure:"community_domain"`
	ArchivalDate    int `mapstructure:"archival_date"`
	WarningPhrase   int `mapstructure:"warning_phrase"`
	PlausibleLength int `mapstructure:"plausible_length"`
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		TrustedDomain:   3,
		OrgDomain:       1,
		CommunityDomain: -5,
		ArchivalDate:    1,
		WarningPhrase:   -10,
		PlausibleLength: 2,
	}
}

// Policy is the immutable scoring configuration for one run.
type Policy struct {
	TrustedSuffixes   []string
	CommunitySuffixes []string
	WarningPhrases    []string
	// ArchivalCutoff is a date string; content observed before it earns the
	// ArchivalDate boost. Any of "2022-01-01", "20220101", or an archive
	// timestamp prefix compare correctly.
	ArchivalCutoff     string
	MinPlausibleLength int
	Weights            Weights
	wordlist           map[string]struct{}
}

// DefaultPolicy returns the standard policy with the built-in wordlist.
func DefaultPolicy() Policy {
	return Policy{
		TrustedSuffixes: []string{
			"ethereum.org",
			"ethereum.foundation",
			"vitalik.ca",
		},
		CommunitySuffixes: []string{
			"medium.com",
			"hackernoon.com",
			"reddit.com",
			"github.com",
			"steemit.com",
			"mirror.xyz",
		},
		WarningPhrases: []string{
			"do not use in production",
			"example only",
			"not for production",
			"test key",
			"sample key",
			"dummy key",
			"do not use",
			"for testing",
		},
		ArchivalCutoff:     "2022-01-01",
		MinPlausibleLength: 20,
		Weights:            DefaultWeights(),
		wordlist:           defaultWordlist(),
	}
}

// WithWordlist returns a copy of the policy using the given phrase wordlist.
func (p Policy) WithWordlist(words []string) Policy {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	p.wordlist = set
	return p
}

// InWordlist reports whether a word belongs to the phrase wordlist.
func (p Policy) InWordlist(word string) bool {
	_, ok := p.wordlist[word]
	return ok
}

// Candidate bundles everything the scoring function looks at. Context is the
// text surrounding the match (usually the whole document); warning phrases
// are searched there so a nearby "example only" disqualifies the artifact
// even when the matched string itself is clean.
type Candidate struct {
	Locator string
	Content string
	Context string
	Date    string
}

// Score applies the additive policy to one candidate. There is no early
// exit; every term is evaluated.
func (p Policy) Score(c Candidate) int {
	score := 0
	domain := investigation.Domain(c.Locator)

	if matchesSuffix(domain, p.TrustedSuffixes) {
		score += p.Weights.TrustedDomain
	}
	if strings.HasSuffix(domain, ".org") {
		score += p.Weights.OrgDomain
	}
	if matchesSuffix(domain, p.CommunitySuffixes) {
		score += p.Weights.CommunityDomain
	}

	if c.Date != "" && dateBefore(c.Date, p.ArchivalCutoff) {
		score += p.Weights.ArchivalDate
	}

	haystack := strings.ToLower(c.Content)
	if c.Context != "" {
		haystack = strings.ToLower(c.Context)
	}
	for _, phrase := range p.WarningPhrases {
		if strings.Contains(haystack, phrase) {
			score += p.Weights.WarningPhrase
			break
		}
	}

	if len(c.Content) > p.MinPlausibleLength {
		score += p.Weights.PlausibleLength
	}

	return score
}

// matchesSuffix checks host against a suffix list on label boundaries, so
// "eips.ethereum.org" matches "ethereum.org" but "fooethereum.org" does not.
func matchesSuffix(host string, suffixes []string) bool {
	if host == "" {
		return false
	}
	for _, suffix := range suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// dateBefore compares two date strings after reducing both to their digits,
// so ISO dates and archive timestamps are interchangeable.
func dateBefore(date, cutoff string) bool {
	d := digitsOnly(date)
	c := digitsOnly(cutoff)
	if d == "" || c == "" {
		return false
	}
	n := len(d)
	if len(c) < n {
		n = len(c)
	}
	return d[:n] < c[:n]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
