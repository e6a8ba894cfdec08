package advisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json fence",
			in:   "Here you go:\n```json\n{\"a\": 1}\n```\nanything else?",
			want: `{"a": 1}`,
		},
		{
			name: "json fence wins even when invalid",
			in:   "```json\n{broken\n```",
			want: "{broken",
		},
		{
			name: "plain fence with valid body",
			in:   "```\n{\"b\": [1, 2]}\n```",
			want: `{"b": [1, 2]}`,
		},
		{
			name: "plain fence with prose falls through to braces",
			in:   "```\nnot json\n``` but later {\"c\": true} appears",
			want: `{"c": true}`,
		},
		{
			name: "bare braces",
			in:   "Sure! {\"targets\": []} hope that helps.",
			want: `{"targets": []}`,
		},
		{
			name: "nested braces use outermost span",
			in:   "prefix {\"outer\": {\"inner\": 1}} suffix",
			want: `{"outer": {"inner": 1}}`,
		},
		{
			name: "nothing recoverable",
			in:   "I could not produce any structured output.",
			want: "{}",
		},
		{
			name: "invalid brace span",
			in:   "between { and } there is no json",
			want: "{}",
		},
		{
			name: "empty input",
			in:   "",
			want: "{}",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}
