package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// asciiReplacer straightens typographic quotes and dashes to ASCII forms.
var asciiReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// cleanText collapses whitespace runs to single spaces, trims the ends, and
// straightens typographic punctuation.
func cleanText(s string) string {
	s = asciiReplacer.Replace(s)
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// dateLayouts are the submission date formats seen on the site, plus the
// ISO form used by older datasets.
var dateLayouts = []string{
	"January 2, 2006",
	"2 January 2006",
	"January 2006",
	"2006-01-02",
}

// yearFromDate parses a cleaned date string and returns its year. ok is
// false when no known layout matches.
func yearFromDate(date string) (int, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// CompositeText is the sentence that gets embedded and deduplicated on.
// Queries and seed documents must embed the same shape to score well.
func CompositeText(word, definition, example string) string {
	return fmt.Sprintf("Definition of %s: %s. Example: %s", word, definition, example)
}
