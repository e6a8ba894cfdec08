// Package fetcher retrieves target pages over HTTP using a Colly collector.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Fetcher implements investigation.Fetcher. Each Fetch clones the base
// collector, so one Fetcher is safe to share across targets.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
	log  *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, log *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, base: c, log: log}
}

// Fetch executes a single GET against the locator and returns the page. A
// non-2xx response surfaces as an error; redirects are followed and the final
// URL is reported in the page.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (investigation.Page, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots

	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		page     investigation.Page
		fetchErr error
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		page = investigation.Page{
			Body:         string(r.Body),
			FinalLocator: r.Request.URL.String(),
			ContentType:  r.Headers.Get("Content-Type"),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(locator)
	}()

	select {
	case <-ctx.Done():
		return investigation.Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return investigation.Page{}, fmt.Errorf("visit %s: %w", locator, err)
		}
		if fetchErr != nil {
			return investigation.Page{}, fmt.Errorf("fetch %s: %w", locator, fetchErr)
		}
	}

	f.log.Debug("fetched page",
		zap.String("locator", locator),
		zap.String("final", page.FinalLocator),
		zap.Int("bytes", len(page.Body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return page, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
