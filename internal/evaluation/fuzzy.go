package evaluation

import "strings"

const (
	// significantWordLength is exclusive: words must be longer to count.
	significantWordLength = 2
	// minFuzzyWords is the number of significant words an expected answer needs
	// before partial credit applies. Shorter expectations only match exactly.
	minFuzzyWords = 2
)

// stopWords never count as significant even when longer than significantWordLength.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "her": {}, "was": {}, "one": {}, "our": {},
	"out": {}, "has": {}, "his": {}, "its": {}, "that": {}, "this": {}, "with": {},
	"from": {}, "into": {}, "over": {}, "than": {}, "then": {}, "them": {}, "they": {},
	"were": {}, "what": {}, "when": {}, "which": {}, "while": {}, "will": {}, "been": {},
	"have": {}, "also": {},
}

// MatchFuzzy grades free text against the expected answers. A normalized exact
// match on any expected answer wins first; otherwise an expected answer matches
// when at least ratio of its significant words appear in the answer.
func MatchFuzzy(q OpenEndedQuestion, answer Answer, ratio float64) bool {
	normalizedAnswer := Normalize(answer.Text())
	if normalizedAnswer == "" || len(q.ExpectedAnswers) == 0 {
		return false
	}

	normalizedExpected := make([]string, 0, len(q.ExpectedAnswers))
	for _, expected := range q.ExpectedAnswers {
		normalized := Normalize(expected)
		if normalized == "" {
			continue
		}
		if normalized == normalizedAnswer {
			return true
		}
		normalizedExpected = append(normalizedExpected, normalized)
	}

	answerTokens := strings.Fields(normalizedAnswer)
	for _, expected := range normalizedExpected {
		words := significantWords(expected)
		if len(words) <= minFuzzyWords {
			continue
		}

		matching := 0
		for _, word := range words {
			if containsRelated(answerTokens, word) {
				matching++
			}
		}

		if float64(matching)/float64(len(words)) >= ratio {
			return true
		}
	}
	return false
}

func significantWords(normalized string) []string {
	tokens := strings.Fields(normalized)
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) <= significantWordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		words = append(words, token)
	}
	return words
}

// containsRelated reports whether word is a substring of some token or the
// reverse, which tolerates plural and stem differences.
func containsRelated(tokens []string, word string) bool {
	for _, token := range tokens {
		if strings.Contains(token, word) || strings.Contains(word, token) {
			return true
		}
	}
	return false
}
