package controller

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

// topDiscoveryCount bounds the highlighted findings in the final report.
const topDiscoveryCount = 10

// buildReport assembles the final document: counts by type, the strongest
// discoveries, and the advisory narrative. A failed narrative call leaves
// the summary empty rather than failing the run.
func (c *Controller) buildReport(ctx context.Context, reason string) investigation.Report {
	discoveries := c.snap.discoveriesCopy()
	aliases := c.snap.aliasesCopy()

	counts := make(map[investigation.ArtifactType]int, 8)
	for _, d := range discoveries {
		counts[d.Type]++
	}

	top := topByScore(discoveries, topDiscoveryCount)

	summary, err := c.deps.Advisor.Summarize(ctx, c.cfg.Objective, top, aliases)
	if err != nil {
		c.deps.Log.Warn("narrative summary unavailable", zap.Error(err))
		summary = ""
	}

	return investigation.Report{
		RunID:             c.cfg.RunID,
		Objective:         c.cfg.Objective,
		Entity:            c.cfg.Entity,
		GeneratedAt:       c.deps.Clock.Now(),
		Iterations:        c.snap.iteration(),
		TerminationReason: reason,
		TotalDiscoveries:  len(discoveries),
		CountsByType:      counts,
		TopDiscoveries:    top,
		Aliases:           aliases,
		NarrativeSummary:  summary,
	}
}

// topByScore returns the n highest-scoring discoveries, redacted, in
// descending score order. Ties keep recording order.
func topByScore(discoveries []investigation.Discovery, n int) []investigation.Discovery {
	sorted := make([]investigation.Discovery, len(discoveries))
	copy(sorted, discoveries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	for i := range sorted {
		sorted[i] = sorted[i].Redacted()
	}
	return sorted
}
