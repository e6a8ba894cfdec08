package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreCommunityDomainPenalty(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	score := p.Score(Candidate{
		Locator: "https://medium.com/@someone/post",
		Content: strings.Repeat("x", 30),
	})
	require.Equal(t, -3, score) // -5 community, +2 length
}

func TestScoreArchivalDateBoost(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	old := p.Score(Candidate{Locator: "https://example.com", Content: "short", Date: "20140601000000"})
	recent := p.Score(Candidate{Locator: "https://example.com", Content: "short", Date: "2023-05-01"})
	require.Equal(t, 1, old-recent)
}

func TestScoreSuffixMatchesOnLabelBoundary(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	require.Equal(t, p.Weights.TrustedDomain+p.Weights.OrgDomain,
		p.Score(Candidate{Locator: "https://eips.ethereum.org/EIPS/eip-1", Content: "x"}))
	require.Zero(t,
		p.Score(Candidate{Locator: "https://fooethereum.com/page", Content: "x"}))
}

func TestScoreWarningPhraseScansContext(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	clean := strings.Repeat("f", 64)
	score := p.Score(Candidate{
		Locator: "https://example.com",
		Content: clean,
		Context: "this is a test key, do not use in production: " + clean,
	})
	require.LessOrEqual(t, score, 0)
}

func TestScoreEvaluatesEveryTerm(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	score := p.Score(Candidate{
		Locator: "https://blog.ethereum.org/2015/07/30/launch",
		Content: strings.Repeat("a", 40),
		Context: "sample key shown during the launch demo",
		Date:    "20150730000000",
	})
	// +3 trusted, +1 .org, +1 date, -10 warning, +2 length
	require.Equal(t, -3, score)
}

func TestWithWordlistReplacesMembership(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy().WithWordlist([]string{"Alpha", " beta "})
	require.True(t, p.InWordlist("alpha"))
	require.True(t, p.InWordlist("beta"))
	require.False(t, p.InWordlist("abandon"))
}
