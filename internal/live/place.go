// Package live resolves time and weather utterances into short natural-
// language fact strings. Resolvers never fail outright: every path ends in
// a displayable sentence, hedged when upstream data is missing.
package live

import (
	"regexp"
	"strings"
)

var trailingPlaceRe = regexp.MustCompile(`(?i)\bin\s+([a-zA-Z\s,]+)$`)

// ExtractPlace pulls the place phrase from an utterance: the substring after
// a recognized lead-in ("time in", "weather in", ...), else the trailing
// "in <place>" clause. Returns a lowercased phrase or "".
func ExtractPlace(q string, leadIns ...string) string {
	low := strings.ToLower(q)
	for _, kw := range leadIns {
		if idx := strings.Index(low, kw); idx >= 0 {
			return strings.Trim(low[idx+len(kw):], " ?.,")
		}
	}
	if m := trailingPlaceRe.FindStringSubmatch(strings.TrimSpace(q)); m != nil {
		return strings.ToLower(strings.Trim(m[1], " ?.,"))
	}
	return ""
}
