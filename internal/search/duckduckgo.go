// Package search implements the keyword search collaborator backed by the
// DuckDuckGo HTML endpoint.
package search

import (
	"context"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// DefaultBaseURL is the no-JavaScript results endpoint.
const DefaultBaseURL = "https://html.duckduckgo.com/html/"

// Client implements investigation.Searcher.
type Client struct {
	base    string
	agent   string
	timeout time.Duration
	log     *zap.Logger
}

// New builds a search client. An empty baseURL selects the public endpoint.
func New(baseURL, userAgent string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base:    baseURL,
		agent:   userAgent,
		timeout: 20 * time.Second,
		log:     log,
	}
}

// Search runs one query and returns up to maxResults distinct result URLs in
// rank order.
func (c *Client) Search(ctx context.Context, keywords []string, maxResults int) ([]string, error) {
	query := strings.Join(keywords, " ")
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	collector := colly.NewCollector(colly.Async(false))
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.timeout)
	if c.agent != "" {
		collector.UserAgent = c.agent
	}

	var results []string
	seen := make(map[string]struct{})
	collector.OnHTML("a.result__a", func(e *colly.HTMLElement) {
		target := decodeResult(e.Attr("href"))
		if target == "" {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		results = append(results, target)
	})

	endpoint := c.base + "?q=" + neturl.QueryEscape(query)
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(endpoint)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("search canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
	}

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	c.log.Debug("search completed", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// decodeResult unwraps a result anchor href. Result links are redirect URLs
// carrying the real target in the uddg parameter; ads carry ad_domain and are
// dropped.
func decodeResult(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := neturl.Parse(href)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Get("ad_domain") != "" {
		return ""
	}
	if target := q.Get("uddg"); target != "" {
		if _, err := neturl.Parse(target); err == nil {
			return target
		}
		return ""
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}
