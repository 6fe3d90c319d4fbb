package evaluation

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	numberPattern     = regexp.MustCompile(`[-+]?\d*\.?\d+`)
)

// Normalize lower-cases text, drops everything that is not a word character or
// whitespace, and collapses whitespace runs to a single space.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped := nonWordPattern.ReplaceAllString(lowered, "")
	collapsed := whitespacePattern.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// ExtractFirstNumber returns the first numeric literal found in text.
// Later numbers are ignored: "between 3 and 5" yields 3.
func ExtractFirstNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
