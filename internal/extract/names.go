package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/osintworks/trailhound/internal/investigation"
)

// namePattern pairs one regexp with the artifact type it yields. Every
// pattern has exactly one capture group holding the candidate name.
type namePattern struct {
	kind investigation.ArtifactType
	re   *regexp.Regexp
}

// nameCatalog holds the compiled identity-pattern set plus the generic-term
// filter applied to raw matches.
type nameCatalog struct {
	patterns []namePattern
	generic  map[string]struct{}
}

func newNameCatalog() *nameCatalog {
	c := &nameCatalog{generic: make(map[string]struct{})}

	add := func(kind investigation.ArtifactType, exprs ...string) {
		for _, expr := range exprs {
			c.patterns = append(c.patterns, namePattern{kind: kind, re: regexp.MustCompile(expr)})
		}
	}

	add(investigation.TypeUsername,
		`(?i)user[\s_-]?name[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)handle[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)account[\s-]name[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?:^|[\s(])@([A-Za-z0-9_]{3,30})\b`,
		`(?i)\b([A-Za-z0-9_-]{3,30})\s+on\s+(?:twitter|github|reddit)\b`,
	)
	add(investigation.TypePseudonym,
		`(?i)pseudonym[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)alias[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)nickname[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)known\s+as\s+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)goes\s+by\s+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
	)
	add(investigation.TypeProjectName,
		`(?i)project[\s-]name[:\s]+['"]?([A-Za-z0-9_-]{3,30})['"]?`,
		`(?i)(?:called|named)\s+["']([A-Za-z0-9][A-Za-z0-9_ -]{1,28}[A-Za-z0-9])["']`,
		`(?i)\bthe\s+([A-Za-z0-9_-]{3,30})\s+(?:protocol|blockchain|platform|network|foundation)\b`,
	)

	// Words too generic to identify anything.
	for _, term := range []string{
		"project", "website", "platform", "system", "network", "concept",
		"username", "nickname", "handle", "alias", "term", "idea",
		"profile", "account", "user", "protocol", "blockchain", "foundation",
		"the", "and", "for", "but", "however", "therefore", "because",
		"company", "startup", "organization", "group", "team", "community",
	} {
		c.generic[term] = struct{}{}
	}
	return c
}

// extract runs the identity patterns over the document text. Matches reuse
// the document's seen set, so a handle repeated across patterns emits once.
func (c *nameCatalog) extract(d *document) []investigation.Artifact {
	var out []investigation.Artifact
	for _, p := range c.patterns {
		for _, m := range p.re.FindAllStringSubmatch(d.text, -1) {
			name := strings.Trim(m[1], " -_")
			if len(name) < 3 {
				continue
			}
			if _, skip := c.generic[strings.ToLower(name)]; skip {
				continue
			}
			summary := fmt.Sprintf("%s %q", p.kind, name)
			if a, ok := d.emit(p.kind, name, summary, d.findLocation(name)); ok {
				out = append(out, a)
			}
		}
	}
	return out
}
