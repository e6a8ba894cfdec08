package investigation

import (
	"net/url"
	"sort"
	"strings"
)

// DomainSet is a membership set of hostnames, matched on label boundaries so
// "blog.ethereum.org" belongs to a set containing "ethereum.org". An entry
// may carry a path prefix ("github.com/ethereum"), in which case only URLs
// under that path count as members for history checks; a bare hostname
// covers the whole domain.
type DomainSet map[string][]string

// NewDomainSet builds a DomainSet from lowercased entries.
func NewDomainSet(entries ...string) DomainSet {
	s := make(DomainSet, len(entries))
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts an entry. A bare hostname widens any path-scoped entries
// already recorded for that host.
func (s DomainSet) Add(entry string) {
	entry = strings.ToLower(strings.TrimSpace(entry))
	host, path, _ := strings.Cut(entry, "/")
	if host == "" {
		return
	}
	if path == "" {
		s[host] = nil
		return
	}
	if prefixes, ok := s[host]; ok && len(prefixes) == 0 {
		return // whole domain already covered
	}
	s[host] = append(s[host], "/"+path)
}

// List returns the entries in sorted order, for checkpointing.
func (s DomainSet) List() []string {
	out := make([]string, 0, len(s))
	for host, prefixes := range s {
		if len(prefixes) == 0 {
			out = append(out, host)
			continue
		}
		for _, p := range prefixes {
			out = append(out, host+p)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether host or one of its parent domains is a member,
// ignoring any path scoping.
func (s DomainSet) Contains(host string) bool {
	host = strings.ToLower(host)
	for {
		if _, ok := s[host]; ok {
			return true
		}
		dot := strings.Index(host, ".")
		if dot < 0 {
			return false
		}
		host = host[dot+1:]
	}
}

// WorthHistory reports whether a URL merits an archival follow-up: member
// domains are content-rich enough that old captures regularly hold artifacts
// the live page lost. Path-scoped entries match only URLs under one of their
// prefixes. Archive URLs themselves never re-enter the archive.
func (s DomainSet) WorthHistory(raw string) bool {
	if strings.Contains(raw, "web.archive.org") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	for host != "" {
		if prefixes, ok := s[host]; ok {
			if len(prefixes) == 0 {
				return true
			}
			for _, p := range prefixes {
				if strings.HasPrefix(path, p) {
					return true
				}
			}
			return false
		}
		dot := strings.Index(host, ".")
		if dot < 0 {
			return false
		}
		host = host[dot+1:]
	}
	return false
}
