package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/extract"
	"github.com/osintworks/trailhound/internal/investigation"
	"github.com/osintworks/trailhound/internal/journal"
)

type fakeAdvisor struct {
	mu            sync.Mutex
	strategy      investigation.Strategy
	nextTargets   [][]investigation.Target
	consultations []investigation.Consultation
	summary       string
}

func (f *fakeAdvisor) Strategy(_ context.Context, _, _ string) (investigation.Strategy, error) {
	return f.strategy, nil
}

func (f *fakeAdvisor) NextTargets(_ context.Context, cons investigation.Consultation) ([]investigation.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consultations = append(f.consultations, cons)
	if len(f.nextTargets) == 0 {
		return nil, nil
	}
	out := f.nextTargets[0]
	f.nextTargets = f.nextTargets[1:]
	return out, nil
}

func (f *fakeAdvisor) Summarize(_ context.Context, _ string, _ []investigation.Discovery, _ []string) (string, error) {
	return f.summary, nil
}

func (f *fakeAdvisor) consulted() []investigation.Consultation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]investigation.Consultation, len(f.consultations))
	copy(out, f.consultations)
	return out
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) (investigation.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, locator)
	f.mu.Unlock()

	body, ok := f.pages[locator]
	if !ok {
		return investigation.Page{}, fmt.Errorf("no page for %s", locator)
	}
	return investigation.Page{Body: body, FinalLocator: locator, ContentType: "text/html"}, nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeArchive struct {
	snaps []investigation.Snapshot
}

func (f *fakeArchive) Snapshots(_ context.Context, _ string, _, _ int) ([]investigation.Snapshot, error) {
	return f.snaps, nil
}

type fakeSearcher struct {
	results []string
}

func (f *fakeSearcher) Search(_ context.Context, _ []string, _ int) ([]string, error) {
	return f.results, nil
}

func pageWithAddress(addr string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>Ledger notes</title></head>
<body><p>Outgoing payment went to %s during the migration window.</p></body></html>`, addr)
}

func testConfig() Config {
	return Config{
		RunID:             "test-run",
		Objective:         "trace the missing wallet",
		Entity:            "J. Doe",
		MaxIterations:     50,
		MaxIdleIterations: 5,
		MaxRuntime:        time.Hour,
		FromYear:          2013,
		SearchMaxResults:  10,
		Seed:              1,
	}
}

func newTestController(t *testing.T, cfg Config, deps Deps) *Controller {
	t.Helper()
	if deps.Fetcher == nil {
		deps.Fetcher = &fakeFetcher{}
	}
	if deps.Archive == nil {
		deps.Archive = &fakeArchive{}
	}
	if deps.Searcher == nil {
		deps.Searcher = &fakeSearcher{}
	}
	if deps.Advisor == nil {
		deps.Advisor = &fakeAdvisor{}
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New(extract.DefaultPolicy())
	}
	if deps.Journal == nil {
		j, err := journal.New(t.TempDir(), cfg.RunID, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = j.Close() })
		deps.Journal = j
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	c, err := New(cfg, deps)
	require.NoError(t, err)
	return c
}

func TestRunTerminatesOnIdleBudget(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxIdleIterations = 2
	advisor := &fakeAdvisor{}

	c := newTestController(t, cfg, Deps{Advisor: advisor})
	require.NoError(t, c.Run(context.Background()))

	report, ok := c.Report()
	require.True(t, ok)
	require.Equal(t, ReasonMaxIdle, report.TerminationReason)
	require.Zero(t, report.TotalDiscoveries)
	require.Equal(t, 2, report.Iterations)

	for _, cons := range advisor.consulted() {
		require.True(t, cons.Idle)
	}
}

func TestRunInvestigatesSeedAndTerminatesOnIterationBudget(t *testing.T) {
	t.Parallel()

	addr := "0x" + strings.Repeat("ab12", 10)
	source := "https://source.test/ledger"
	captureURL := "https://archive.test/web/20140601000000/http://source.test/ledger"

	cfg := testConfig()
	cfg.MaxIterations = 2

	advisor := &fakeAdvisor{
		strategy: investigation.Strategy{Sources: []string{source}},
		summary:  "one address recovered",
	}
	fetch := &fakeFetcher{pages: map[string]string{
		source:     pageWithAddress(addr),
		captureURL: pageWithAddress(addr),
	}}
	archive := &fakeArchive{snaps: []investigation.Snapshot{
		{Timestamp: "20140601000000", FetchURL: captureURL},
	}}

	c := newTestController(t, cfg, Deps{Advisor: advisor, Fetcher: fetch, Archive: archive})
	require.NoError(t, c.Run(context.Background()))

	report, ok := c.Report()
	require.True(t, ok)
	require.Equal(t, ReasonMaxIterations, report.TerminationReason)
	require.Equal(t, 1, report.TotalDiscoveries)
	require.Equal(t, 1, report.CountsByType[investigation.TypeWalletAddress])
	require.Equal(t, "one address recovered", report.NarrativeSummary)

	// The strategy seed was fetched live, then its archival follow-up
	// sampled the capture; the duplicate content was not re-promoted.
	require.Equal(t, []string{source, captureURL}, fetch.fetched())

	discoveries := c.Discoveries()
	require.Len(t, discoveries, 1)
	require.Equal(t, addr, discoveries[0].Content) // addresses are not sensitive
	require.False(t, discoveries[0].FromArchive)
}

func TestDuplicateSeedTargetsDispatchOnce(t *testing.T) {
	t.Parallel()

	addr := "0x" + strings.Repeat("ef56", 10)
	source := "https://source.test/profile"

	cfg := testConfig()
	cfg.MaxIdleIterations = 1

	// The strategy suggests the same URL twice; both enter the frontier
	// before either is dispatched.
	advisor := &fakeAdvisor{strategy: investigation.Strategy{Sources: []string{source, source}}}
	fetch := &fakeFetcher{pages: map[string]string{source: pageWithAddress(addr)}}

	c := newTestController(t, cfg, Deps{Advisor: advisor, Fetcher: fetch})
	require.NoError(t, c.Run(context.Background()))

	require.Equal(t, []string{source}, fetch.fetched())

	report, ok := c.Report()
	require.True(t, ok)
	require.Equal(t, 1, report.TotalDiscoveries)
}

func TestRunTerminatesOnRuntimeBudget(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	clock := investigation.ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return base.Add(time.Duration(calls-1) * 45 * time.Minute)
	})

	c := newTestController(t, cfg, Deps{Clock: clock})
	require.NoError(t, c.Run(context.Background()))

	report, ok := c.Report()
	require.True(t, ok)
	require.Equal(t, ReasonMaxRuntime, report.TerminationReason)
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestController(t, testConfig(), Deps{})
	require.NoError(t, c.Run(ctx))

	report, ok := c.Report()
	require.True(t, ok)
	require.Equal(t, ReasonCanceled, report.TerminationReason)
}

func TestSearchResultsBecomeWebsiteTargets(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.PriorityDomains = []string{"oldsite.test"}
	searcher := &fakeSearcher{results: []string{
		"https://oldsite.test/profile",
		"https://github.com/login",
		"https://other.test/page",
	}}

	c := newTestController(t, cfg, Deps{Searcher: searcher})
	c.investigateSearch(context.Background(), investigation.Target{
		Kind:     investigation.KindSearch,
		Locator:  "old forum profile",
		Priority: 8,
	})

	pending := c.frontier.Remaining()
	require.Len(t, pending, 2) // the generic login page is filtered out

	require.Equal(t, "https://oldsite.test/profile", pending[0].Locator)
	require.Equal(t, investigation.KindWebsite, pending[0].Kind)
	require.Equal(t, 7, pending[0].Priority)
	require.True(t, pending[0].CheckHistory)

	require.Equal(t, "https://other.test/page", pending[1].Locator)
	require.False(t, pending[1].CheckHistory)
}

func TestCalendarLocatorResolvesToDirectCapture(t *testing.T) {
	t.Parallel()

	addr := "0x" + strings.Repeat("cd34", 10)
	calendar := "https://web.archive.org/web/20140601000000*/http://old.test/journal"
	direct := "https://web.archive.org/web/20140601000000/http://old.test/journal"

	fetch := &fakeFetcher{pages: map[string]string{direct: pageWithAddress(addr)}}
	c := newTestController(t, testConfig(), Deps{Fetcher: fetch})

	discoveries := c.investigateWebsite(context.Background(), 1, investigation.Target{
		Kind:     investigation.KindWebsite,
		Locator:  calendar,
		Priority: 9,
	})

	require.Equal(t, []string{direct}, fetch.fetched())
	require.Len(t, discoveries, 1)
	require.True(t, discoveries[0].FromArchive)
	require.Equal(t, "http://old.test/journal", discoveries[0].OriginalLocator)
	require.Equal(t, "20140601000000", discoveries[0].ObservedDate)
}

func TestCalendarLocatorFallsBackToYearSampling(t *testing.T) {
	t.Parallel()

	calendar := "https://web.archive.org/web/20150301*/http://gone.test/wiki"

	// No page behind the direct capture URL, so the fetch fails.
	c := newTestController(t, testConfig(), Deps{Fetcher: &fakeFetcher{}})

	discoveries := c.investigateWebsite(context.Background(), 1, investigation.Target{
		Kind:     investigation.KindWebsite,
		Locator:  calendar,
		Priority: 9,
	})
	require.Empty(t, discoveries)

	pending := c.frontier.Remaining()
	require.Len(t, pending, 1)
	require.Equal(t, investigation.KindHistorical, pending[0].Kind)
	require.Equal(t, "http://gone.test/wiki", pending[0].Locator)
	require.Equal(t, 8, pending[0].Priority)
	require.Equal(t, 2015, pending[0].YearFrom)
	require.Equal(t, 2015, pending[0].YearTo)
}

func TestCalendarLocatorWithEmptyCaptureSkipsFallback(t *testing.T) {
	t.Parallel()

	calendar := "https://web.archive.org/web/20150301*/http://quiet.test/blog"
	direct := "https://web.archive.org/web/20150301/http://quiet.test/blog"
	body := `<!DOCTYPE html><html><head><title>Blog</title></head>
<body><p>Nothing noteworthy was published here that spring, just site maintenance updates.</p></body></html>`

	fetch := &fakeFetcher{pages: map[string]string{direct: body}}
	c := newTestController(t, testConfig(), Deps{Fetcher: fetch})

	discoveries := c.investigateWebsite(context.Background(), 1, investigation.Target{
		Kind:     investigation.KindWebsite,
		Locator:  calendar,
		Priority: 9,
	})

	require.Empty(t, discoveries)
	// The capture fetched fine and simply held no artifacts; no year-range
	// sampling follow-up is queued.
	require.Empty(t, c.frontier.Remaining())
}

func TestPromoteAppliesBoostsGateAndAliases(t *testing.T) {
	t.Parallel()

	c := newTestController(t, testConfig(), Deps{})

	artifacts := []investigation.Artifact{
		{
			Type:        investigation.TypeUsername,
			Content:     "jdoe_eth",
			Summary:     `username "jdoe_eth"`,
			Score:       0, // +2 high-value lifts it over the gate
			ContentHash: "hash-username",
		},
		{
			Type:        investigation.TypePrivateKey,
			Content:     strings.Repeat("f", 64),
			Summary:     "[private key redacted - 64 chars]",
			Score:       -8, // warning-phrase penalty keeps it out even boosted
			ContentHash: "hash-key",
		},
		{
			Type:        investigation.TypeUsername,
			Content:     "jdoe_eth",
			Summary:     `username "jdoe_eth"`,
			Score:       3,
			ContentHash: "hash-username", // duplicate of the first
		},
		{
			Type:        investigation.TypeProjectName,
			Content:     "jdoe_eth labs",
			Summary:     `project_name "jdoe_eth labs"`,
			Score:       1, // +1 alias boost from the username accepted above
			ContentHash: "hash-project",
		},
	}

	accepted := c.promote(3, artifacts, false, "https://source.test")
	require.Len(t, accepted, 2)

	require.Equal(t, "hash-username", accepted[0].ID)
	require.Equal(t, 2, accepted[0].Score)
	require.Equal(t, 3, accepted[0].Iteration)

	require.Equal(t, "hash-project", accepted[1].ID)
	require.Equal(t, 2, accepted[1].Score)

	aliases := c.snap.aliasesCopy()
	require.Contains(t, aliases, "J. Doe")
	require.Contains(t, aliases, "jdoe_eth")
	require.NotContains(t, aliases, "jdoe_eth labs") // project names are not aliases
}
