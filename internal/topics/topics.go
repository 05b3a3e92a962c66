package topics

import (
	"encoding/json"
	"strings"
)

// ParseList parses a stored topic list into individual topic filters.
//
// Subscription rules store their topics as a single raw string whose
// format has drifted over time, so three encodings are accepted in
// priority order:
//  1. JSON array of strings: ["a/b", "c/d"]
//  2. Newline-separated: one topic per line
//  3. Comma-separated: a/b, c/d
//
// Entries are trimmed of surrounding whitespace, empties are dropped,
// and duplicates are removed preserving first-seen order. Invalid or
// empty input yields an empty slice, never an error: a rule with no
// usable topics simply subscribes to nothing.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var entries []string

	// JSON array takes priority; fall through on any decode failure.
	if strings.HasPrefix(raw, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			entries = arr
		}
	}

	if entries == nil {
		if strings.Contains(raw, "\n") {
			entries = strings.Split(raw, "\n")
		} else {
			entries = strings.Split(raw, ",")
		}
	}

	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out
}

// NormalizeKey reduces a topic or device name to a canonical comparison key.
//
// Lower-cases the input and collapses the separator characters '/', '_'
// and '-' (and runs of them) to a single '_', so that "stm32/3",
// "stm32_3" and "STM32-3" all normalize to "stm32_3". Used for fuzzy
// linkage between auto-provisioned devices and subscription rules.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	prevSep := false
	for _, r := range s {
		switch r {
		case '/', '_', '-':
			if !prevSep {
				b.WriteByte('_')
				prevSep = true
			}
		default:
			b.WriteRune(r)
			prevSep = false
		}
	}

	return strings.Trim(b.String(), "_")
}
