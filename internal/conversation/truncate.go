package conversation

import "unicode/utf8"

// MaxStringLen is the per-string limit, in characters, for tool payloads.
const MaxStringLen = 500

const ellipsis = "..."

// truncateString cuts s to max characters and appends "..." when it was longer.
func truncateString(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}

// truncateValue applies truncateString to every string leaf of a decoded
// JSON value, at any depth. Object keys are left intact.
func truncateValue(v any, max int) any {
	switch t := v.(type) {
	case string:
		return truncateString(t, max)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = truncateValue(child, max)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = truncateValue(child, max)
		}
		return out
	default:
		return v
	}
}
