package investigation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainSetContainsWalksParentLabels(t *testing.T) {
	t.Parallel()

	s := NewDomainSet("Ethereum.org", " forum.test ")

	require.True(t, s.Contains("ethereum.org"))
	require.True(t, s.Contains("blog.ethereum.org"))
	require.True(t, s.Contains("FORUM.test"))
	require.False(t, s.Contains("fooethereum.org"))
	require.False(t, s.Contains("ethereum.org.evil.test"))
	require.False(t, s.Contains(""))
}

func TestDomainSetAdd(t *testing.T) {
	t.Parallel()

	s := NewDomainSet()
	require.False(t, s.Contains("late.test"))
	s.Add("Late.test")
	require.True(t, s.Contains("sub.late.test"))
}

func TestWorthHistory(t *testing.T) {
	t.Parallel()

	s := NewDomainSet("oldsite.test")

	require.True(t, s.WorthHistory("https://oldsite.test/profile"))
	require.True(t, s.WorthHistory("http://archive.oldsite.test/x"))
	require.False(t, s.WorthHistory("https://elsewhere.test/page"))

	// Archive captures never re-enter the archive.
	require.False(t, s.WorthHistory("https://web.archive.org/web/2014/http://oldsite.test"))
}

func TestWorthHistoryHonorsPathScopedEntries(t *testing.T) {
	t.Parallel()

	s := NewDomainSet("github.com/ethereum", "github.com/vbuterin", "forum.test")

	require.True(t, s.WorthHistory("https://github.com/ethereum/go-ethereum"))
	require.True(t, s.WorthHistory("https://github.com/vbuterin/pybitcointools"))
	require.False(t, s.WorthHistory("https://github.com/someone/else"))

	// Bare entries still cover every path on the domain.
	require.True(t, s.WorthHistory("https://forum.test/anything/at/all"))

	// Contains stays a pure host check regardless of path scoping.
	require.True(t, s.Contains("github.com"))
}

func TestAddBareHostWidensPathScopedEntries(t *testing.T) {
	t.Parallel()

	s := NewDomainSet("github.com/ethereum")
	require.False(t, s.WorthHistory("https://github.com/someone/else"))

	s.Add("github.com")
	require.True(t, s.WorthHistory("https://github.com/someone/else"))
	require.Equal(t, []string{"github.com"}, s.List())
}
