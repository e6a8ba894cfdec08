package controller

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
	"github.com/osintworks/trailhound/internal/metrics"
	"github.com/osintworks/trailhound/internal/snapshot"
)

// dispatch executes one target. Failures are logged and count as zero
// discoveries; the loop never aborts on a single bad target.
func (c *Controller) dispatch(ctx context.Context, iteration int, t investigation.Target) []investigation.Discovery {
	metrics.TargetsDispatched.WithLabelValues(t.Kind.String()).Inc()
	c.deps.Log.Info("dispatching target",
		zap.Int("iteration", iteration),
		zap.Stringer("kind", t.Kind),
		zap.String("locator", t.Locator),
		zap.Int("priority", t.Priority),
	)

	switch t.Kind {
	case investigation.KindWebsite, investigation.KindRepository:
		return c.investigateWebsite(ctx, iteration, t)
	case investigation.KindHistorical:
		return c.investigateHistorical(ctx, iteration, t)
	case investigation.KindSearch:
		c.investigateSearch(ctx, t)
		return nil
	}
	c.deps.Log.Warn("unknown target kind", zap.Int("kind", int(t.Kind)), zap.String("locator", t.Locator))
	return nil
}

// investigateWebsite fetches one live page (or a direct archive capture when
// the locator is a calendar URL) and promotes its artifacts. A successful
// direct fetch of a history-worthy page enqueues an archival follow-up two
// priority steps below the page itself.
func (c *Controller) investigateWebsite(ctx context.Context, iteration int, t investigation.Target) []investigation.Discovery {
	if ts, original, ok := snapshot.ParseCalendar(t.Locator); ok {
		artifacts, fetched := c.fetchAndExtract(ctx, snapshot.DirectURL(ts, original), ts)
		if !fetched {
			// Direct capture unavailable; sample the whole year around
			// the requested timestamp instead.
			if year := calendarYear(ts); year > 0 {
				c.push(investigation.Target{
					Kind:      investigation.KindHistorical,
					Locator:   original,
					Priority:  t.Priority - 1,
					Rationale: "calendar fallback for " + t.Locator,
					YearFrom:  year,
					YearTo:    year,
				})
			}
			return nil
		}
		return c.promote(iteration, artifacts, true, original)
	}

	artifacts, _ := c.fetchAndExtract(ctx, t.Locator, "")
	discoveries := c.promote(iteration, artifacts, false, t.Locator)

	if t.CheckHistory && !strings.Contains(t.Locator, "web.archive.org") {
		c.push(investigation.Target{
			Kind:      investigation.KindHistorical,
			Locator:   t.Locator,
			Priority:  t.Priority - 2,
			Rationale: "archival follow-up of " + t.Locator,
		})
	}
	return discoveries
}

// investigateHistorical lists captures in the target's year range, samples a
// bounded subset, and extracts from each capture.
func (c *Controller) investigateHistorical(ctx context.Context, iteration int, t investigation.Target) []investigation.Discovery {
	fromYear := t.YearFrom
	if fromYear <= 0 {
		fromYear = c.cfg.FromYear
	}
	toYear := t.YearTo
	if toYear <= 0 {
		toYear = c.deps.Clock.Now().Year()
	}

	snaps, err := c.deps.Archive.Snapshots(ctx, t.Locator, fromYear, toYear)
	if err != nil {
		c.deps.Log.Warn("snapshot listing failed", zap.String("locator", t.Locator), zap.Error(err))
		return nil
	}
	if len(snaps) == 0 {
		c.deps.Log.Info("no captures in range",
			zap.String("locator", t.Locator),
			zap.Int("from_year", fromYear),
			zap.Int("to_year", toYear),
		)
		return nil
	}

	sampled := snapshot.Sample(snaps, c.rng)
	c.deps.Log.Info("sampling captures",
		zap.String("locator", t.Locator),
		zap.Int("available", len(snaps)),
		zap.Int("sampled", len(sampled)),
	)

	// One seen set across the captures, so unchanged content between
	// captures extracts once.
	seen := make(map[string]struct{})
	var discoveries []investigation.Discovery
	for _, capture := range sampled {
		if ctx.Err() != nil {
			break
		}
		artifacts, _ := c.extractFrom(ctx, capture.FetchURL, capture.Timestamp, seen)
		discoveries = append(discoveries, c.promote(iteration, artifacts, true, t.Locator)...)
	}
	return discoveries
}

// investigateSearch runs the query and feeds the results back into the
// frontier one priority step below the query itself.
func (c *Controller) investigateSearch(ctx context.Context, t investigation.Target) {
	results, err := c.deps.Searcher.Search(ctx, strings.Fields(t.Locator), c.cfg.SearchMaxResults)
	if err != nil {
		c.deps.Log.Warn("search failed", zap.String("query", t.Locator), zap.Error(err))
		return
	}

	var targets []investigation.Target
	for _, result := range results {
		if !investigation.ValidTargetURL(result, c.cfg.Entity) {
			continue
		}
		targets = append(targets, investigation.Target{
			Kind:      investigation.KindWebsite,
			Locator:   result,
			Priority:  t.Priority - 1,
			Rationale: fmt.Sprintf("search result for %q", t.Locator),
		})
	}
	accepted := c.push(targets...)
	c.deps.Log.Info("search produced targets",
		zap.String("query", t.Locator),
		zap.Int("results", len(results)),
		zap.Int("accepted", accepted),
	)
}

// calendarYear extracts the 4-digit year from an archive timestamp prefix.
func calendarYear(ts string) int {
	if len(ts) < 4 {
		return 0
	}
	year := 0
	for _, r := range ts[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// fetchAndExtract is extractFrom with a fresh per-document seen set.
func (c *Controller) fetchAndExtract(ctx context.Context, locator, date string) ([]investigation.Artifact, bool) {
	return c.extractFrom(ctx, locator, date, make(map[string]struct{}))
}

// extractFrom fetches one document and extracts its artifacts. The second
// return reports whether the fetch itself succeeded; a successfully fetched
// document with no artifacts returns (nil, true).
func (c *Controller) extractFrom(ctx context.Context, locator, date string, seen map[string]struct{}) ([]investigation.Artifact, bool) {
	if err := c.waitTurn(ctx, locator); err != nil {
		c.deps.Log.Warn("rate limit interrupted", zap.String("locator", locator), zap.Error(err))
		return nil, false
	}

	page, err := c.deps.Fetcher.Fetch(ctx, locator)
	if err != nil || page.Body == "" {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		c.deps.Log.Warn("fetch failed", zap.String("locator", locator), zap.Error(err))
		return nil, false
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	source := page.FinalLocator
	if source == "" {
		source = locator
	}
	artifacts := c.deps.Extractor.Extract(page.Body, source, date, seen)
	for _, a := range artifacts {
		metrics.ArtifactsExtracted.WithLabelValues(string(a.Type)).Inc()
	}
	return artifacts, true
}

// promote applies the post-extraction boosts, the positivity gate, and
// run-level dedup, recording survivors as discoveries. Name-denoting
// discoveries grow the alias set.
func (c *Controller) promote(iteration int, artifacts []investigation.Artifact, fromArchive bool, originalLocator string) []investigation.Discovery {
	if len(artifacts) == 0 {
		return nil
	}

	var accepted []investigation.Discovery
	for _, a := range artifacts {
		score := a.Score
		if a.Type.HighValue() {
			score += highValueBoost
		}
		if c.snap.matchesAlias(a.Content) {
			score += aliasBoost
		}
		if score <= 0 {
			continue
		}
		if c.store.Contains(a.ContentHash) {
			continue
		}
		c.store.Insert(a.ContentHash)

		d := investigation.Discovery{
			ID:              a.ContentHash,
			Type:            a.Type,
			Content:         a.Content,
			Summary:         a.Summary,
			SourceLocator:   a.SourceLocator,
			OriginalLocator: originalLocator,
			FromArchive:     fromArchive,
			ObservedDate:    a.ObservedDate,
			Score:           score,
			Iteration:       iteration,
			RecordedAt:      c.deps.Clock.Now(),
		}
		accepted = append(accepted, d)
		metrics.DiscoveriesTotal.WithLabelValues(string(d.Type)).Inc()

		if a.Type.NameLike() && c.snap.addAlias(a.Content) {
			c.deps.Log.Info("new alias identified", zap.String("alias", a.Content))
		}

		c.deps.Log.Info("discovery recorded",
			zap.String("type", string(d.Type)),
			zap.String("summary", d.Summary),
			zap.Int("score", d.Score),
			zap.Bool("from_archive", d.FromArchive),
		)
	}

	c.snap.appendDiscoveries(accepted)
	return accepted
}
