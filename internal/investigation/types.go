// Package investigation defines core types shared across subsystems.
package investigation

import (
	"time"
)

// Kind identifies the closed set of frontier target variants.
type Kind int

// Target kinds. The zero value is KindWebsite so a Target literal without an
// explicit kind behaves like a plain page fetch.
const (
	KindWebsite Kind = iota
	KindHistorical
	KindSearch
	KindRepository
)

// String returns the persisted label for a Kind.
func (k Kind) String() string {
	switch k {
	case KindWebsite:
		return "website"
	case KindHistorical:
		return "historical"
	case KindSearch:
		return "search"
	case KindRepository:
		return "repository"
	default:
		return "unknown"
	}
}

// ParseKind maps a persisted label back to a Kind. The second return is false
// for labels outside the closed set.
func ParseKind(label string) (Kind, bool) {
	switch label {
	case "website":
		return KindWebsite, true
	case "historical":
		return KindHistorical, true
	case "search":
		return KindSearch, true
	case "repository":
		return KindRepository, true
	default:
		return KindWebsite, false
	}
}

// Target is one unit of frontier work.
type Target struct {
	Kind     Kind   `json:"kind"`
	Locator  string `json:"locator"` // URL, or the raw query for KindSearch
	Priority int    `json:"priority"`
	// Rationale is diagnostic only and has no behavioral effect.
	Rationale string `json:"rationale,omitempty"`
	// CheckHistory requests a follow-up historical target after a direct
	// website/repository fetch succeeds.
	CheckHistory bool `json:"check_history,omitempty"`
	// YearFrom/YearTo bound snapshot listing for KindHistorical. Zero values
	// fall back to the configured defaults.
	YearFrom int `json:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty"`
}

// VisitedKey derives the canonical suppression key for a Target. Once a key
// has been recorded, an equivalent Target is never dispatched again within the
// same run.
func (t Target) VisitedKey() string {
	switch t.Kind {
	case KindHistorical:
		return "historical:" + NormalizeLocator(t.Locator)
	case KindSearch:
		return "search:" + t.Locator
	default:
		return NormalizeLocator(t.Locator)
	}
}

// ArtifactType is the closed set of extractable artifact families.
type ArtifactType string

// Artifact types emitted by the extraction engine.
const (
	TypeWalletAddress ArtifactType = "wallet_address"
	TypePrivateKey    ArtifactType = "private_key"
	TypeKeystore      ArtifactType = "keystore"
	TypeSeedPhrase    ArtifactType = "seed_phrase"
	TypeAPIKey        ArtifactType = "api_key"
	TypeUsername      ArtifactType = "username"
	TypePseudonym     ArtifactType = "pseudonym"
	TypeProjectName   ArtifactType = "project_name"
	TypeContract      ArtifactType = "solidity_contract"
)

// Sensitive reports whether the artifact content must never appear in a
// human-facing summary.
func (t ArtifactType) Sensitive() bool {
	switch t {
	case TypePrivateKey, TypeKeystore, TypeSeedPhrase, TypeAPIKey:
		return true
	default:
		return false
	}
}

// NameLike reports whether the artifact denotes an identifying name or handle
// that should feed the entity alias set.
func (t ArtifactType) NameLike() bool {
	switch t {
	case TypeUsername, TypePseudonym, TypeWalletAddress:
		return true
	default:
		return false
	}
}

// HighValue reports whether the artifact type receives the controller-side
// score boost before acceptance.
func (t ArtifactType) HighValue() bool {
	switch t {
	case TypeUsername, TypePseudonym, TypeWalletAddress, TypePrivateKey:
		return true
	default:
		return false
	}
}

// Artifact is a candidate finding extracted from one fetched document.
type Artifact struct {
	Type          ArtifactType `json:"type"`
	Content       string       `json:"-"` // never serialized wholesale
	Summary       string       `json:"summary"`
	Location      string       `json:"location"`
	Score         int          `json:"score"`
	ContentHash   string       `json:"content_hash"`
	SourceLocator string       `json:"source_locator"`
	ObservedDate  string       `json:"observed_date,omitempty"`
}

// Discovery is an Artifact promoted into the permanent record after passing
// dedup and the score-positivity gate.
type Discovery struct {
	ID              string       `json:"id"` // content hash
	Type            ArtifactType `json:"type"`
	Content         string       `json:"content,omitempty"`
	Summary         string       `json:"summary"`
	SourceLocator   string       `json:"source_locator"`
	OriginalLocator string       `json:"original_locator"`
	FromArchive     bool         `json:"from_archive"`
	ObservedDate    string       `json:"observed_date,omitempty"`
	Score           int          `json:"score"`
	Iteration       int          `json:"iteration"`
	RecordedAt      time.Time    `json:"recorded_at"`
}

// Redacted returns a copy safe for persistence: sensitive content is dropped,
// leaving the hash reference and summary.
func (d Discovery) Redacted() Discovery {
	if d.Type.Sensitive() {
		d.Content = ""
	}
	return d
}

// Page is the result of fetching one locator. An empty Body signals failure.
type Page struct {
	Body         string
	FinalLocator string
	ContentType  string
}

// Snapshot is one historical capture of a URL.
type Snapshot struct {
	Timestamp string `json:"timestamp"` // 4 to 14 digit archive timestamp
	FetchURL  string `json:"fetch_url"`
}

// Strategy is the initial research plan returned by the advisory collaborator.
type Strategy struct {
	Sources       []string `json:"sources"`
	SearchQueries []string `json:"search_queries"`
	InfoTypes     []string `json:"information_types"`
}
