package investigation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"keeps explicit port", "http://example.com:8080/a", "http://example.com:8080/a"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
		{"sorts query parameters", "https://example.com/a?z=1&a=2", "https://example.com/a?a=2&z=1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeLocatorFallsBackToRawString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "alice forum posts", NormalizeLocator("alice forum posts"))
	require.Equal(t, "https://example.com/a", NormalizeLocator("https://example.com/a#x"))
}

func TestDomain(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", Domain("https://Example.com:8443/path"))
	require.Equal(t, "", Domain("not a url at all\x7f"))
	require.Equal(t, "", Domain("relative/path"))
}

func TestValidTargetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		entity string
		want   bool
	}{
		{"plain content page", "https://forum.test/thread/42", "Alice", true},
		{"relative url rejected", "/thread/42", "Alice", false},
		{"non-http scheme rejected", "ftp://forum.test/file", "Alice", false},
		{"github login page rejected", "https://github.com/login", "Alice", false},
		{"github pricing page rejected", "https://github.com/pricing/plans", "Alice", false},
		{"github repository accepted", "https://github.com/alicedev/wallet-tools", "Alice", true},
		{"marketing page rejected", "https://vendor.test/features", "Alice", false},
		{"marketing page accepted when entity appears", "https://vendor.test/features/alice-case-study", "Alice", true},
		{"short entity words ignored", "https://vendor.test/about-us", "J. Q. Doe", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ValidTargetURL(tc.raw, tc.entity))
		})
	}
}
