package snapshot

import (
	"fmt"
	"regexp"
	"strings"
)

// calendarPattern matches archive calendar locators, where the timestamp may
// be anything from a bare year to a full second-resolution stamp.
var calendarPattern = regexp.MustCompile(`^https?://web\.archive\.org/web/(\d{4,14})\*/(.+)$`)

// ParseCalendar splits an archive calendar locator into its timestamp and the
// original URL. ok is false for anything that is not a calendar locator.
func ParseCalendar(raw string) (timestamp, original string, ok bool) {
	m := calendarPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// DirectURL converts a calendar timestamp plus original URL into a direct
// capture fetch URL. The original's scheme is stripped so the archive decides
// the redirect itself.
func DirectURL(timestamp, original string) string {
	stripped := strings.TrimPrefix(strings.TrimPrefix(original, "https://"), "http://")
	return fmt.Sprintf("https://web.archive.org/web/%s/http://%s", timestamp, stripped)
}
