package advisor

import (
	"encoding/json"
	"strings"
)

// ExtractJSON recovers the JSON object embedded in a model response. Models
// wrap payloads unpredictably, so recovery is tried in order: an explicit
// ```json fence, any fence whose contents validate, then the outermost brace
// span if it validates. The fallback is the empty object, never an error;
// callers treat unparseable advice as no advice.
func ExtractJSON(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}

	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate := strings.TrimSpace(rest[:j])
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate := strings.TrimSpace(text[start : end+1])
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	return "{}"
}
