package websearch

import (
	"fmt"
	"strings"
)

const (
	contextMaxItems   = 5
	contextTitleMax   = 160
	contextSnippetMax = 300
)

// BuildContext formats up to 5 results as a numbered citation block for the
// generation prompt. Empty input yields an empty string; callers must treat
// that as "omit context", not inject an empty block.
func BuildContext(results []Result) string {
	var lines []string
	for i, r := range results {
		if i >= contextMaxItems {
			break
		}
		lines = append(lines, fmt.Sprintf("[%d] %s\n%s\n— %s",
			i+1, clip(r.Title, contextTitleMax), r.Link, clip(r.Snippet, contextSnippetMax)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Use the following web findings **only if helpful**. " +
		"Cite sources inline as [#] when stating specific facts.\n\n" +
		strings.Join(lines, "\n\n")
}

// HeadlineDigest renders a numbered "title — domain" list, or an operator
// hint built from diagnostics when nothing came back.
func HeadlineDigest(results []Result, diag Diagnostics) string {
	if len(results) == 0 {
		hint := diag.Error
		if hint == "" {
			hint = "unknown error"
		}
		return "I couldn’t fetch fresh headlines right now.\n\n" +
			fmt.Sprintf("• The search provider said: %s\n", hint) +
			"• Check the JSON API is enabled & billing active; use a server key " +
			"without HTTP referrer restrictions; and make sure the engine searches the web."
	}
	var lines []string
	for i, r := range results {
		if i >= contextMaxItems {
			break
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		line := fmt.Sprintf("%d. %s", i+1, title)
		if domain := strings.TrimSpace(r.DisplayLink); domain != "" {
			line += " — " + domain
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "Here are some current headlines:\nNo headlines found."
	}
	return "Here are some current headlines:\n" + strings.Join(lines, "\n")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
