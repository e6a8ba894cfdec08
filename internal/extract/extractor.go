package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/osintworks/trailhound/internal/dedupe"
	"github.com/osintworks/trailhound/internal/investigation"
)

// Documents smaller than this are noise (error pages, empty bodies) and are
// skipped outright.
const minDocumentBytes = 100

var allowedPhraseLengths = map[int]struct{}{
	12: {}, 15: {}, 18: {}, 21: {}, 24: {},
}

var (
	addressPattern    = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	rawKeyPattern     = regexp.MustCompile(`\b0x[0-9a-fA-F]{64}\b`)
	labeledKeyPattern = regexp.MustCompile(`(?i)(?:private\s*key|secret\s*key|key)\s*[:=]?\s*['"]?([0-9a-fA-F]{64})['"]?`)

	infuraPattern    = regexp.MustCompile(`https?://[^"'\s]*infura\.io/v3/([0-9a-fA-F]{32})`)
	alchemyPattern   = regexp.MustCompile(`https?://[^"'\s]*alchemy\.com/v2/([0-9a-zA-Z]{32,})`)
	etherscanPattern = regexp.MustCompile(`(?i)etherscan.*?api_?key.*?['"]([A-Za-z0-9]{34,})['"]`)

	labeledPhrasePattern = regexp.MustCompile(`(?i)(?:mnemonic|seed\s+phrase|recovery\s+phrase|backup\s+phrase)\s*[:=]?\s*['"]?([a-zA-Z][a-zA-Z\s]+)['"]?`)

	contractPattern = regexp.MustCompile(`contract\s+(\w+)\s*\{`)
)

// Extractor scans fetched documents for typed candidate artifacts. It holds
// no mutable state; per-document dedup lives in the caller-supplied seen set,
// so repeated extraction of the same document is idempotent.
type Extractor struct {
	policy Policy
	names  *nameCatalog
}

// New builds an Extractor bound to an immutable scoring policy.
func New(policy Policy) *Extractor {
	return &Extractor{policy: policy, names: newNameCatalog()}
}

// Policy returns the scoring policy the extractor was built with.
func (e *Extractor) Policy() Policy { return e.policy }

// Extract runs every artifact family over one document and returns the
// scored candidates. No two returned artifacts share a content hash; the
// seen set carries that guarantee and may be shared across calls when the
// caller wants cross-document suppression.
func (e *Extractor) Extract(content, locator, date string, seen map[string]struct{}) []investigation.Artifact {
	if len(content) < minDocumentBytes {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}
	if seen == nil {
		seen = make(map[string]struct{})
	}

	d := &document{
		doc:     doc,
		text:    doc.Text(),
		locator: locator,
		date:    date,
		seen:    seen,
		policy:  e.policy,
	}

	var artifacts []investigation.Artifact
	artifacts = append(artifacts, d.addresses()...)
	artifacts = append(artifacts, d.privateKeys()...)
	artifacts = append(artifacts, d.keystores()...)
	artifacts = append(artifacts, d.seedPhrases()...)
	artifacts = append(artifacts, d.apiKeys()...)
	artifacts = append(artifacts, d.contracts()...)
	artifacts = append(artifacts, e.names.extract(d)...)
	return artifacts
}

// document carries the parsed state for one extraction pass.
type document struct {
	doc     *goquery.Document
	text    string
	locator string
	date    string
	seen    map[string]struct{}
	policy  Policy
}

// emit builds one artifact unless its normalized hash was already seen in
// this document.
func (d *document) emit(t investigation.ArtifactType, content, summary, location string) (investigation.Artifact, bool) {
	hash := dedupe.HashContent(content)
	if _, dup := d.seen[hash]; dup {
		return investigation.Artifact{}, false
	}
	d.seen[hash] = struct{}{}

	score := d.policy.Score(Candidate{
		Locator: d.locator,
		Content: content,
		Context: d.text,
		Date:    d.date,
	})
	return investigation.Artifact{
		Type:          t,
		Content:       content,
		Summary:       summary,
		Location:      location,
		Score:         score,
		ContentHash:   hash,
		SourceLocator: d.locator,
		ObservedDate:  d.date,
	}, true
}

func (d *document) addresses() []investigation.Artifact {
	var out []investigation.Artifact
	for _, m := range addressPattern.FindAllString(d.text, -1) {
		if a, ok := d.emit(investigation.TypeWalletAddress, m, m, d.findLocation(m)); ok {
			out = append(out, a)
		}
	}
	return out
}

func (d *document) privateKeys() []investigation.Artifact {
	var out []investigation.Artifact
	for _, m := range labeledKeyPattern.FindAllStringSubmatch(d.text, -1) {
		key := m[1]
		summary := fmt.Sprintf("[private key redacted - %d chars]", len(key))
		if a, ok := d.emit(investigation.TypePrivateKey, key, summary, d.findLocation(key)); ok {
			out = append(out, a)
		}
	}
	for _, m := range rawKeyPattern.FindAllString(d.text, -1) {
		summary := fmt.Sprintf("[private key redacted - %d chars]", len(m))
		if a, ok := d.emit(investigation.TypePrivateKey, m, summary, d.findLocation(m)); ok {
			out = append(out, a)
		}
	}
	return out
}

// keystoreMarkers must all co-occur in a code block before a structured
// parse is attempted.
var keystoreMarkers = []string{"crypto", "cipher", "kdf", "address"}

func (d *document) keystores() []investigation.Artifact {
	var out []investigation.Artifact
	d.doc.Find("pre, code").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		lower := strings.ToLower(text)
		for _, marker := range keystoreMarkers {
			if !strings.Contains(lower, marker) {
				return
			}
		}

		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return
		}
		jsonText := text[start : end+1]

		var obj map[string]any
		if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
			return
		}
		if version, ok := obj["version"].(float64); !ok || version != 3 {
			return
		}
		address, _ := obj["address"].(string)

		summary := fmt.Sprintf("[keystore redacted] - v3 keystore for address 0x%s", address)
		if a, ok := d.emit(investigation.TypeKeystore, jsonText, summary, fmt.Sprintf("code block #%d", i+1)); ok {
			out = append(out, a)
		}
	})
	return out
}

func (d *document) seedPhrases() []investigation.Artifact {
	var out []investigation.Artifact

	// Explicitly labeled phrases must be entirely wordlist members.
	for _, m := range labeledPhrasePattern.FindAllStringSubmatch(d.text, -1) {
		raw := strings.TrimSpace(m[1])
		words := strings.Fields(strings.ToLower(raw))
		if _, ok := allowedPhraseLengths[len(words)]; !ok {
			continue
		}
		if !d.allInWordlist(words) {
			continue
		}
		phrase := strings.Join(words, " ")
		summary := fmt.Sprintf("[%d-word seed phrase redacted]", len(words))
		if a, ok := d.emit(investigation.TypeSeedPhrase, phrase, summary, d.findLocation(raw)); ok {
			out = append(out, a)
		}
	}

	// Unlabeled text blocks of an allowed length qualify when filtering out
	// non-members still leaves an allowed length.
	d.doc.Find("p, pre, code").Each(func(i int, s *goquery.Selection) {
		words := strings.Fields(strings.ToLower(s.Text()))
		if _, ok := allowedPhraseLengths[len(words)]; !ok {
			return
		}
		members := words[:0:0]
		for _, w := range words {
			if d.policy.InWordlist(w) {
				members = append(members, w)
			}
		}
		if _, ok := allowedPhraseLengths[len(members)]; !ok {
			return
		}
		phrase := strings.Join(members, " ")
		summary := fmt.Sprintf("[%d-word seed phrase redacted]", len(members))
		if a, ok := d.emit(investigation.TypeSeedPhrase, phrase, summary, fmt.Sprintf("text block #%d", i+1)); ok {
			out = append(out, a)
		}
	})

	return out
}

func (d *document) allInWordlist(words []string) bool {
	for _, w := range words {
		if !d.policy.InWordlist(w) {
			return false
		}
	}
	return len(words) > 0
}

func (d *document) apiKeys() []investigation.Artifact {
	providers := []struct {
		name    string
		pattern *regexp.Regexp
	}{
		{"Infura", infuraPattern},
		{"Alchemy", alchemyPattern},
		{"Etherscan", etherscanPattern},
	}

	var out []investigation.Artifact
	d.doc.Find("pre, code").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		for _, provider := range providers {
			for _, m := range provider.pattern.FindAllStringSubmatch(text, -1) {
				key := m[1]
				summary := fmt.Sprintf("[%s API key redacted - %d chars]", provider.name, len(key))
				if a, ok := d.emit(investigation.TypeAPIKey, key, summary, fmt.Sprintf("code block #%d", i+1)); ok {
					out = append(out, a)
				}
			}
		}
	})
	return out
}

// contracts lifts Solidity contract definitions out of code blocks. The span
// runs from the contract keyword through the brace that closes its body;
// unbalanced blocks are skipped. Contract source is not sensitive, so the
// summary carries a truncated excerpt instead of a redaction marker.
func (d *document) contracts() []investigation.Artifact {
	var out []investigation.Artifact
	d.doc.Find("pre, code").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		for _, loc := range contractPattern.FindAllStringSubmatchIndex(text, -1) {
			name := text[loc[2]:loc[3]]
			code, ok := braceSpan(text, loc[0])
			if !ok {
				continue
			}

			excerpt := code
			if len(excerpt) > 100 {
				excerpt = excerpt[:97] + "..."
			}
			summary := fmt.Sprintf("Contract %s: %s", name, excerpt)
			if a, ok := d.emit(investigation.TypeContract, code, summary, fmt.Sprintf("code block #%d", i+1)); ok {
				out = append(out, a)
			}
		}
	})
	return out
}

// braceSpan returns text from start through the brace closing the first
// opening brace at or after start.
func braceSpan(text string, start int) (string, bool) {
	depth := 0
	for j := start; j < len(text); j++ {
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : j+1], true
			}
		}
	}
	return "", false
}

// findLocation returns a human-readable tag for the element containing the
// needle. Diagnostic only.
func (d *document) findLocation(needle string) string {
	location := "unknown location"
	d.doc.Find("pre, code, p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), needle) {
			location = fmt.Sprintf("%s #%d", goquery.NodeName(s), i+1)
			return false
		}
		return true
	})
	return location
}
