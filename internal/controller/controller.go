// Package controller drives the investigation loop: it pops frontier
// targets, dispatches them by kind, promotes scored artifacts into
// discoveries, and consults the advisory oracle for follow-up leads until a
// termination guard fires.
package controller

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/dedupe"
	"github.com/osintworks/trailhound/internal/extract"
	"github.com/osintworks/trailhound/internal/frontier"
	"github.com/osintworks/trailhound/internal/investigation"
	"github.com/osintworks/trailhound/internal/journal"
	"github.com/osintworks/trailhound/internal/metrics"
	"github.com/osintworks/trailhound/internal/ratelimit"
)

// Loop states.
const (
	StateInitializing = "initializing"
	StateRunning      = "running"
	StateIdle         = "idle"
	StateTerminated   = "terminated"
)

// Termination reasons, logged and reported verbatim.
const (
	ReasonMaxIterations = "max_iterations"
	ReasonMaxIdle       = "max_idle_iterations"
	ReasonMaxRuntime    = "max_runtime"
	ReasonCanceled      = "canceled"
)

// Baseline priorities for strategy seeding and fallbacks.
const (
	prioStrategySource = 10
	prioStrategyQuery  = 8
	prioFallback       = 6
)

// Score adjustments applied at promotion time, after extraction scoring.
const (
	highValueBoost = 2
	aliasBoost     = 1
)

// Config carries the per-run loop parameters.
type Config struct {
	RunID             string
	Objective         string
	Entity            string
	MaxIterations     int
	MaxIdleIterations int
	MaxRuntime        time.Duration
	FromYear          int
	SearchMaxResults  int
	Seed              int64
	PriorityDomains   []string
	FallbackSources   []string
}

// Deps bundles the collaborators. Limiter and Clock are optional.
type Deps struct {
	Fetcher   investigation.Fetcher
	Archive   investigation.Archive
	Searcher  investigation.Searcher
	Advisor   investigation.Advisor
	Extractor *extract.Extractor
	Journal   *journal.Journal
	Limiter   *ratelimit.Limiter
	Clock     investigation.Clock
	Log       *zap.Logger
}

// Controller owns all mutable run state. Run drives it from one goroutine;
// the read-side accessors used by the status server take the snapshot lock.
type Controller struct {
	cfg  Config
	deps Deps

	frontier *frontier.Frontier
	store    *dedupe.Store
	rng      *rand.Rand
	priority investigation.DomainSet

	snap snapshotState
}

// New validates the configuration and builds a Controller.
func New(cfg Config, deps Deps) (*Controller, error) {
	if strings.TrimSpace(cfg.Objective) == "" {
		return nil, fmt.Errorf("controller: objective is required")
	}
	if strings.TrimSpace(cfg.Entity) == "" {
		return nil, fmt.Errorf("controller: entity is required")
	}
	if cfg.MaxIterations <= 0 || cfg.MaxIdleIterations <= 0 || cfg.MaxRuntime <= 0 {
		return nil, fmt.Errorf("controller: iteration, idle, and runtime budgets must be positive")
	}
	if deps.Fetcher == nil || deps.Archive == nil || deps.Searcher == nil || deps.Advisor == nil {
		return nil, fmt.Errorf("controller: fetcher, archive, searcher, and advisor are required")
	}
	if deps.Extractor == nil || deps.Journal == nil || deps.Log == nil {
		return nil, fmt.Errorf("controller: extractor, journal, and logger are required")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.FromYear <= 0 {
		cfg.FromYear = 2013
	}
	if cfg.SearchMaxResults <= 0 {
		cfg.SearchMaxResults = 10
	}
	if deps.Clock == nil {
		deps.Clock = investigation.ClockFunc(time.Now)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = deps.Clock.Now().UnixNano()
	}

	c := &Controller{
		cfg:      cfg,
		deps:     deps,
		frontier: frontier.New(),
		store:    dedupe.NewStore(),
		rng:      rand.New(rand.NewSource(seed)),
		priority: investigation.NewDomainSet(cfg.PriorityDomains...),
	}
	c.snap.name = StateInitializing
	c.snap.aliases = []string{cfg.Entity}
	return c, nil
}

// Run executes the loop until a termination guard fires or the context is
// canceled. The returned error covers infrastructure failure only; an
// exhausted run is a normal return.
func (c *Controller) Run(ctx context.Context) error {
	c.snap.setStarted(c.deps.Clock.Now())
	c.deps.Log.Info("investigation starting",
		zap.String("run_id", c.cfg.RunID),
		zap.String("objective", c.cfg.Objective),
		zap.String("entity", c.cfg.Entity),
	)

	c.initialize(ctx)
	c.snap.setState(StateRunning)

	reason := c.loop(ctx)

	c.snap.setState(StateTerminated)
	c.deps.Log.Info("investigation terminated",
		zap.String("reason", reason),
		zap.Int("iterations", c.snap.iteration()),
		zap.Int("discoveries", len(c.snap.discoveriesCopy())),
	)

	report := c.buildReport(ctx, reason)
	c.snap.setReport(report)
	if err := c.deps.Journal.WriteReport(report); err != nil {
		c.deps.Log.Warn("write report", zap.Error(err))
	}
	c.deps.Journal.Event(journal.EventTermination, map[string]any{
		"reason":      reason,
		"iterations":  report.Iterations,
		"discoveries": report.TotalDiscoveries,
	})
	return nil
}

// initialize seeds the frontier from the advisory research strategy, falling
// back to the configured sources when the strategy yields nothing usable.
func (c *Controller) initialize(ctx context.Context) {
	strategy, err := c.deps.Advisor.Strategy(ctx, c.cfg.Objective, c.cfg.Entity)
	if err != nil {
		c.deps.Log.Warn("initial strategy unavailable", zap.Error(err))
	}

	var targets []investigation.Target
	for _, source := range strategy.Sources {
		if investigation.ValidTargetURL(source, c.cfg.Entity) {
			targets = append(targets, investigation.Target{
				Kind:         investigation.KindWebsite,
				Locator:      source,
				Priority:     prioStrategySource,
				Rationale:    "initial source from research strategy",
				CheckHistory: true,
			})
			continue
		}
		// Bare source names become priority domains rather than targets.
		if domain := investigation.Domain("https://" + source); domain != "" && strings.Contains(source, ".") {
			c.priority.Add(domain)
		}
	}
	for _, query := range strategy.SearchQueries {
		if strings.TrimSpace(query) == "" {
			continue
		}
		targets = append(targets, investigation.Target{
			Kind:      investigation.KindSearch,
			Locator:   query,
			Priority:  prioStrategyQuery,
			Rationale: "initial search query from research strategy",
		})
	}

	if len(targets) == 0 {
		for _, source := range c.cfg.FallbackSources {
			if !investigation.ValidTargetURL(source, c.cfg.Entity) {
				continue
			}
			targets = append(targets, investigation.Target{
				Kind:         investigation.KindWebsite,
				Locator:      source,
				Priority:     prioFallback,
				Rationale:    "configured fallback source",
				CheckHistory: true,
			})
		}
	}

	accepted := c.push(targets...)
	c.deps.Journal.Event(journal.EventInitialization, map[string]any{
		"objective":       c.cfg.Objective,
		"entity":          c.cfg.Entity,
		"strategy":        strategy,
		"initial_targets": accepted,
	})
	c.deps.Log.Info("frontier seeded", zap.Int("targets", accepted))
}

// loop runs iterations until a guard fires and returns the reason.
func (c *Controller) loop(ctx context.Context) string {
	for {
		if ctx.Err() != nil {
			return ReasonCanceled
		}

		// Guards, in priority order.
		if c.snap.iteration() >= c.cfg.MaxIterations {
			c.deps.Log.Info("iteration budget exhausted", zap.Int("max_iterations", c.cfg.MaxIterations))
			return ReasonMaxIterations
		}
		if c.snap.idleCount() >= c.cfg.MaxIdleIterations {
			c.deps.Log.Info("idle budget exhausted", zap.Int("max_idle_iterations", c.cfg.MaxIdleIterations))
			return ReasonMaxIdle
		}
		if elapsed := c.deps.Clock.Now().Sub(c.snap.startedAt()); elapsed >= c.cfg.MaxRuntime {
			c.deps.Log.Info("runtime budget exhausted", zap.Duration("elapsed", elapsed))
			return ReasonMaxRuntime
		}

		iteration := c.snap.nextIteration()
		metrics.IterationsTotal.Inc()

		target, ok := c.frontier.Pop()
		metrics.FrontierDepth.Set(float64(c.frontier.Len()))
		if !ok {
			c.idlePass(ctx, iteration)
			continue
		}

		c.snap.setState(StateRunning)
		c.frontier.MarkVisited(target.VisitedKey())

		discoveries := c.dispatch(ctx, iteration, target)
		if len(discoveries) > 0 {
			c.snap.resetIdle()
			c.consult(ctx, discoveries)
		} else {
			c.snap.addIdle()
		}

		c.deps.Journal.Event(journal.EventInvestigation, map[string]any{
			"iteration":   iteration,
			"kind":        target.Kind.String(),
			"locator":     target.Locator,
			"priority":    target.Priority,
			"discoveries": len(discoveries),
		})
		c.checkpoint()
	}
}

// idlePass asks the oracle for fresh leads over the whole history.
func (c *Controller) idlePass(ctx context.Context, iteration int) {
	c.snap.setState(StateIdle)
	c.snap.addIdle()
	c.deps.Log.Info("frontier empty, generating new leads", zap.Int("iteration", iteration))

	cons := investigation.Consultation{
		Objective:   c.cfg.Objective,
		Entity:      c.cfg.Entity,
		Discoveries: c.snap.discoveriesCopy(),
		Aliases:     c.snap.aliasesCopy(),
		Idle:        true,
		IsVisited:   c.frontier.Visited,
	}
	targets, err := c.deps.Advisor.NextTargets(ctx, cons)
	if err != nil {
		metrics.ConsultationsTotal.WithLabelValues("error").Inc()
		c.deps.Log.Warn("lead generation failed", zap.Error(err))
	} else {
		metrics.ConsultationsTotal.WithLabelValues("ok").Inc()
	}

	accepted := c.push(targets...)
	c.deps.Journal.Event(journal.EventLeadsGeneration, map[string]any{
		"iteration":   iteration,
		"new_targets": accepted,
	})
	c.checkpoint()
}

// consult feeds this iteration's discoveries back to the oracle.
func (c *Controller) consult(ctx context.Context, discoveries []investigation.Discovery) {
	cons := investigation.Consultation{
		Objective:   c.cfg.Objective,
		Entity:      c.cfg.Entity,
		Discoveries: discoveries,
		Aliases:     c.snap.aliasesCopy(),
		IsVisited:   c.frontier.Visited,
	}
	targets, err := c.deps.Advisor.NextTargets(ctx, cons)
	if err != nil {
		metrics.ConsultationsTotal.WithLabelValues("error").Inc()
		c.deps.Log.Warn("consultation failed", zap.Error(err))
		return
	}
	metrics.ConsultationsTotal.WithLabelValues("ok").Inc()

	accepted := c.push(targets...)
	c.deps.Journal.Event(journal.EventConsultation, map[string]any{
		"discoveries": len(discoveries),
		"new_targets": accepted,
	})
}

// push annotates website targets with history-worthiness and adds everything
// to the frontier.
func (c *Controller) push(targets ...investigation.Target) int {
	for i := range targets {
		if targets[i].Kind == investigation.KindWebsite && !targets[i].CheckHistory {
			targets[i].CheckHistory = c.priority.WorthHistory(targets[i].Locator)
		}
	}
	accepted := c.frontier.Push(targets...)
	metrics.FrontierDepth.Set(float64(c.frontier.Len()))
	return accepted
}

// checkpoint persists loop state; failures are logged and ignored.
func (c *Controller) checkpoint() {
	doc := checkpointDoc{
		RunID:           c.cfg.RunID,
		Objective:       c.cfg.Objective,
		Entity:          c.cfg.Entity,
		Iteration:       c.snap.iteration(),
		Idle:            c.snap.idleCount(),
		State:           c.snap.stateName(),
		Aliases:         c.snap.aliasesCopy(),
		PriorityDomains: c.priority.List(),
		Pending:         c.frontier.Remaining(),
		VisitedKeys:     c.frontier.VisitedKeys(),
		SeenHashes:      c.store.Snapshot(),
	}
	if err := c.deps.Journal.WriteState(doc); err != nil {
		c.deps.Log.Warn("checkpoint state", zap.Error(err))
	}
	if err := c.deps.Journal.WriteDiscoveries(c.snap.discoveriesCopy()); err != nil {
		c.deps.Log.Warn("checkpoint discoveries", zap.Error(err))
	}
}

// checkpointDoc is the persisted state.json shape.
type checkpointDoc struct {
	RunID           string                 `json:"run_id"`
	Objective       string                 `json:"objective"`
	Entity          string                 `json:"entity"`
	Iteration       int                    `json:"iteration"`
	Idle            int                    `json:"idle_iterations"`
	State           string                 `json:"state"`
	Aliases         []string               `json:"aliases"`
	PriorityDomains []string               `json:"priority_domains"`
	Pending         []investigation.Target `json:"pending_targets"`
	VisitedKeys     []string               `json:"visited_keys"`
	SeenHashes      []string               `json:"seen_hashes"`
}

// Status implements api.StatusSource.
func (c *Controller) Status() investigation.Status {
	return investigation.Status{
		RunID:         c.cfg.RunID,
		Objective:     c.cfg.Objective,
		Entity:        c.cfg.Entity,
		State:         c.snap.stateName(),
		Iteration:     c.snap.iteration(),
		FrontierDepth: c.frontier.Len(),
		Discoveries:   c.snap.discoveryCount(),
		StartedAt:     c.snap.startedAt(),
	}
}

// Discoveries returns redacted copies for the status server.
func (c *Controller) Discoveries() []investigation.Discovery {
	list := c.snap.discoveriesCopy()
	out := make([]investigation.Discovery, len(list))
	for i, d := range list {
		out[i] = d.Redacted()
	}
	return out
}

// Report returns the final report once the run terminated.
func (c *Controller) Report() (investigation.Report, bool) {
	return c.snap.reportCopy()
}

// waitTurn applies the per-domain limiter when one is configured.
func (c *Controller) waitTurn(ctx context.Context, locator string) error {
	if c.deps.Limiter == nil {
		return nil
	}
	return c.deps.Limiter.Wait(ctx, locator)
}
