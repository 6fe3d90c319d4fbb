package evaluation

import "math"

// MatchNumeric accepts the answer when its first number lies within the relative
// tolerance of any expected value. An expected value of 0 only accepts exactly 0.
func MatchNumeric(q NumericQuestion, answer Answer, tolerance float64) bool {
	if len(q.ExpectedAnswers) == 0 {
		return false
	}

	got, ok := ExtractFirstNumber(answer.Text())
	if !ok {
		return false
	}

	for _, expected := range q.ExpectedAnswers {
		want, ok := ExtractFirstNumber(expected)
		if !ok {
			continue
		}
		if math.Abs(got-want) <= math.Abs(want)*tolerance {
			return true
		}
	}
	return false
}
