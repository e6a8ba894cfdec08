package investigation

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL to avoid duplicate visits.
// It lowercases the scheme and host, removes default ports, sorts query
// parameters, and strips fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NormalizeLocator is NormalizeURL with a passthrough for locators that do
// not parse as URLs (raw queries, malformed suggestions). VisitedKey
// derivation must never fail, so the raw string is the fallback key.
func NormalizeLocator(raw string) string {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return raw
	}
	return normalized
}

// Domain returns the lowercased hostname of a locator, or "" when it does not
// parse.
func Domain(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Generic path prefixes that never carry investigation-relevant content on
// code-hosting sites.
var genericRepoPaths = []string{
	"/login", "/signup", "/features", "/team", "/enterprise",
	"/pricing", "/about", "/site", "/security", "/codespaces",
	"/topics", "/collections", "/trending", "/copilot",
}

var genericPageMarkers = []string{"features", "pricing", "about-us", "contact"}

// ValidTargetURL filters suggestion URLs before they become frontier targets:
// it requires an absolute http(s) URL and skips login/marketing pages that
// never contain artifacts, unless the URL itself mentions the entity.
func ValidTargetURL(raw, entity string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	if u.Hostname() == "github.com" {
		for _, prefix := range genericRepoPaths {
			if strings.HasPrefix(u.Path, prefix) {
				return false
			}
		}
	}

	lowered := strings.ToLower(raw)
	if referencesEntity(lowered, entity) {
		return true
	}
	for _, marker := range genericPageMarkers {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	return true
}

func referencesEntity(loweredURL, entity string) bool {
	for _, part := range strings.Fields(strings.ToLower(entity)) {
		if len(part) >= 3 && strings.Contains(loweredURL, part) {
			return true
		}
	}
	return false
}
