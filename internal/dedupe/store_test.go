package dedupe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashContentNormalizesCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	base := HashContent("0xAbCd1234 ef56")
	require.Equal(t, base, HashContent("0xabcd1234ef56"))
	require.Equal(t, base, HashContent("  0XABCD1234\n\tEF56  "))
	require.NotEqual(t, base, HashContent("0xabcd1234ef57"))
	require.Len(t, base, 64)
}

func TestStoreInsertAndContains(t *testing.T) {
	t.Parallel()

	s := NewStore()
	h := HashContent("witness me")

	require.False(t, s.Contains(h))
	s.Insert(h)
	require.True(t, s.Contains(h))

	s.Insert(h)
	require.Equal(t, 1, s.Len())
}

func TestStoreSnapshotAndRestore(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Insert(HashContent("b"))
	s.Insert(HashContent("a"))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	require.Less(t, snap[0], snap[1])

	restored := NewStore()
	restored.Restore(snap)
	require.True(t, restored.Contains(HashContent("a")))
	require.True(t, restored.Contains(HashContent("b")))
	require.Equal(t, 2, restored.Len())
}
