// Package advisor implements the advisory oracle on the Anthropic Messages
// API. Advice is always best-effort: malformed responses degrade to empty
// results so the investigation loop never stalls on the model.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

// Target priority tiers by suggestion category. Idle consultations feed the
// frontier below fresh-lead priority so direct follow-ups still win.
const (
	prioWebsite    = 9
	prioSearch     = 8
	prioRepository = 8
	prioHistorical = 7

	idlePrioWebsite    = 7
	idlePrioSearch     = 6
	idlePrioRepository = 6
	idlePrioHistorical = 5
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 2000
)

// Config holds the API settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Client implements investigation.Advisor.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	log       *zap.Logger
}

// New builds a Client. The API key must be non-empty; model and token limit
// fall back to defaults.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("advisor: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}, nil
}

// complete sends one prompt and concatenates the text blocks of the reply.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// Strategy asks for the initial research plan.
func (c *Client) Strategy(ctx context.Context, objective, entity string) (investigation.Strategy, error) {
	prompt := fmt.Sprintf(`Generate a detailed research strategy for the following objective:

Objective: %s
Entity: %s

Please identify:
1. Key sources to check (websites, forums, archives)
2. Specific search queries to use
3. Types of information to look for
4. Historical periods or events to focus on

Format your response as a JSON object with fields "sources",
"search_queries", and "information_types", each an array of strings.`, objective, entity)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return investigation.Strategy{}, err
	}

	var strategy investigation.Strategy
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &strategy); err != nil {
		c.log.Warn("unparseable strategy response", zap.Error(err))
		return investigation.Strategy{}, nil
	}
	return strategy, nil
}

// suggestionSet mirrors the JSON structure the consultation prompts request.
type suggestionSet struct {
	Websites []struct {
		URL       string `json:"url"`
		Rationale string `json:"rationale"`
	} `json:"website_targets"`
	Searches []struct {
		Query     string `json:"query"`
		Rationale string `json:"rationale"`
	} `json:"search_queries"`
	Historical []struct {
		URL       string `json:"url"`
		YearRange []int  `json:"year_range"`
		Rationale string `json:"rationale"`
	} `json:"historical_targets"`
	Repositories []struct {
		URL       string `json:"url"`
		Rationale string `json:"rationale"`
	} `json:"repository_targets"`
}

// NextTargets consults the model for follow-up targets. Suggestions that do
// not validate or that were already visited are dropped silently.
func (c *Client) NextTargets(ctx context.Context, cons investigation.Consultation) ([]investigation.Target, error) {
	text, err := c.complete(ctx, c.consultationPrompt(cons))
	if err != nil {
		return nil, err
	}

	var suggestions suggestionSet
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &suggestions); err != nil {
		c.log.Warn("unparseable consultation response", zap.Error(err))
		return nil, nil
	}
	return c.convert(suggestions, cons), nil
}

func (c *Client) consultationPrompt(cons investigation.Consultation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert digital detective investigating: %q\n\n", cons.Objective)

	if cons.Idle {
		b.WriteString("So far, we've discovered:\n")
	} else {
		b.WriteString("Recent findings:\n")
	}
	for i, d := range cons.Discoveries {
		fmt.Fprintf(&b, "%d. [%s] %s (Source: %s)\n", i+1, d.Type, d.Summary, d.SourceLocator)
	}
	if len(cons.Discoveries) == 0 {
		b.WriteString("(nothing yet)\n")
	}

	if aliases := otherAliases(cons.Entity, cons.Aliases); len(aliases) > 0 {
		fmt.Fprintf(&b, "\nKnown aliases for %s: %s\n", cons.Entity, strings.Join(aliases, ", "))
	}

	if cons.Idle {
		b.WriteString(`
We've hit a dead end and need fresh ideas. Based on what we've found so far:

1. What alternative sources should we check that we might have missed?
2. What new search strategies could yield more information?
3. Are there any connections between our findings that suggest new avenues to explore?
4. What historical periods or archives might contain relevant information?
`)
	} else {
		b.WriteString(`
Based on these findings, I need:

1. 3-5 specific URLs I should investigate next (with explanation for each)
2. 2-3 search queries I should run (with explanation for each)
3. Any specific archives, forums, or repositories to check
4. Any historical time periods I should focus on for archived snapshots
`)
	}

	b.WriteString(`
Format your suggestions as a JSON object with the following structure:
{
    "website_targets": [
        {"url": "https://example.com/path", "rationale": "why this is relevant"}
    ],
    "search_queries": [
        {"query": "example search query", "rationale": "why this search would be valuable"}
    ],
    "historical_targets": [
        {"url": "https://example.com", "year_range": [2013, 2016], "rationale": "why these snapshots matter"}
    ],
    "repository_targets": [
        {"url": "https://github.com/username/repo", "rationale": "what to look for"}
    ]
}

Be specific, not generic. Use exact URLs and search terms tailored to the objective.`)
	return b.String()
}

// convert maps parsed suggestions onto frontier targets, applying the
// category priority tiers and dropping invalid or already-visited entries.
func (c *Client) convert(suggestions suggestionSet, cons investigation.Consultation) []investigation.Target {
	visited := cons.IsVisited
	if visited == nil {
		visited = func(string) bool { return false }
	}

	prio := func(fresh, idle int) int {
		if cons.Idle {
			return idle
		}
		return fresh
	}

	var targets []investigation.Target
	push := func(t investigation.Target) {
		if visited(t.VisitedKey()) {
			return
		}
		targets = append(targets, t)
	}

	for _, s := range suggestions.Websites {
		if !investigation.ValidTargetURL(s.URL, cons.Entity) {
			continue
		}
		push(investigation.Target{
			Kind:      investigation.KindWebsite,
			Locator:   s.URL,
			Priority:  prio(prioWebsite, idlePrioWebsite),
			Rationale: s.Rationale,
		})
	}
	for _, s := range suggestions.Searches {
		if strings.TrimSpace(s.Query) == "" {
			continue
		}
		push(investigation.Target{
			Kind:      investigation.KindSearch,
			Locator:   s.Query,
			Priority:  prio(prioSearch, idlePrioSearch),
			Rationale: s.Rationale,
		})
	}
	for _, s := range suggestions.Historical {
		if !investigation.ValidTargetURL(s.URL, cons.Entity) {
			continue
		}
		t := investigation.Target{
			Kind:      investigation.KindHistorical,
			Locator:   s.URL,
			Priority:  prio(prioHistorical, idlePrioHistorical),
			Rationale: s.Rationale,
		}
		if len(s.YearRange) == 2 {
			t.YearFrom, t.YearTo = s.YearRange[0], s.YearRange[1]
		}
		push(t)
	}
	for _, s := range suggestions.Repositories {
		if !investigation.ValidTargetURL(s.URL, cons.Entity) {
			continue
		}
		push(investigation.Target{
			Kind:      investigation.KindRepository,
			Locator:   s.URL,
			Priority:  prio(prioRepository, idlePrioRepository),
			Rationale: s.Rationale,
		})
	}

	c.log.Debug("consultation produced targets",
		zap.Int("count", len(targets)),
		zap.Bool("idle", cons.Idle),
	)
	return targets
}

// Summarize asks for the final narrative over the strongest discoveries.
func (c *Client) Summarize(ctx context.Context, objective string, top []investigation.Discovery, aliases []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise investigation summary for the objective: %q\n\n", objective)
	b.WriteString("Key findings, strongest first:\n")
	for i, d := range top {
		fmt.Fprintf(&b, "%d. [%s, score %d] %s (Source: %s)\n", i+1, d.Type, d.Score, d.Summary, d.SourceLocator)
	}
	if len(aliases) > 0 {
		fmt.Fprintf(&b, "\nIdentified aliases: %s\n", strings.Join(aliases, ", "))
	}
	b.WriteString(`
Summarize what was found, how the findings connect, and what remains open.
Keep it under 300 words of plain prose. Do not invent findings.`)

	return c.complete(ctx, b.String())
}

func otherAliases(entity string, aliases []string) []string {
	var out []string
	for _, a := range aliases {
		if !strings.EqualFold(a, entity) {
			out = append(out, fmt.Sprintf("%q", a))
		}
	}
	return out
}
