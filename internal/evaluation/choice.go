package evaluation

// MatchChoice grades a multiple-choice answer. It fails closed: any answer that
// cannot be resolved against the options is incorrect.
func MatchChoice(q ChoiceQuestion, answer Answer) bool {
	if index, ok := answer.Index(); ok {
		if q.CorrectIndex != nil {
			return index == *q.CorrectIndex
		}

		correct, ok := q.correctText()
		if !ok {
			return false
		}
		if index < 0 || index >= len(q.Options) {
			return false
		}
		return Normalize(q.Options[index]) == correct
	}

	correct, ok := q.correctText()
	if !ok {
		return false
	}
	return Normalize(answer.Text()) == correct
}

// correctText resolves the normalized text of the correct option: the option at
// CorrectIndex when it is in bounds, else FallbackCorrectText, else the first option.
func (q ChoiceQuestion) correctText() (string, bool) {
	var text string
	switch {
	case q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(q.Options):
		text = q.Options[*q.CorrectIndex]
	case q.FallbackCorrectText != "":
		text = q.FallbackCorrectText
	case len(q.Options) > 0:
		text = q.Options[0]
	}

	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}
	return normalized, true
}
