package evaluation

import (
	"strconv"
	"strings"
)

// Kind is the declared question type.
type Kind string

// Supported question kinds.
const (
	KindMultipleChoice Kind = "multiple_choice"
	KindOpenEnded      Kind = "open_ended"
	KindUnknown        Kind = "unknown"
)

// AnswerFormat is an optional hint about the shape of the expected answer.
type AnswerFormat string

// Supported answer formats. Number and Numeric force numeric matching.
const (
	FormatNone     AnswerFormat = ""
	FormatNumber   AnswerFormat = "number"
	FormatNumeric  AnswerFormat = "numeric"
	FormatFreeText AnswerFormat = "free-text"
)

// IsNumeric reports whether the format forces numeric matching.
func (f AnswerFormat) IsNumeric() bool {
	switch AnswerFormat(strings.ToLower(string(f))) {
	case FormatNumber, FormatNumeric:
		return true
	default:
		return false
	}
}

// Question is the caller-owned description of a quiz item. It is never mutated.
type Question struct {
	Text                string
	Kind                Kind
	Options             []string
	CorrectIndex        *int
	FallbackCorrectText string
	AnswerFormat        AnswerFormat
	ExpectedAnswers     []string
	// Explanation and Context are only forwarded to the semantic judge.
	Explanation string
	Context     string
}

// Answer is either a choice index or free text.
type Answer struct {
	index   int
	text    string
	isIndex bool
}

// IndexAnswer builds an answer selecting the option at index.
func IndexAnswer(index int) Answer {
	return Answer{index: index, isIndex: true}
}

// TextAnswer builds a free-text answer.
func TextAnswer(text string) Answer {
	return Answer{text: text}
}

// Index returns the selected option index when the answer is an index.
func (a Answer) Index() (int, bool) {
	return a.index, a.isIndex
}

// Text renders the answer as text. Index answers render in decimal form.
func (a Answer) Text() string {
	if a.isIndex {
		return strconv.Itoa(a.index)
	}
	return a.text
}

// Shape identifies which matcher handles a question.
type Shape string

// Question shapes.
const (
	ShapeChoice    Shape = "choice"
	ShapeNumeric   Shape = "numeric"
	ShapeOpenEnded Shape = "open_ended"
	ShapeUnknown   Shape = "unknown"
)

// Variant is the classified form of a question. The set of implementations is closed.
type Variant interface {
	Shape() Shape
	variant()
}

// ChoiceQuestion is a multiple-choice question.
type ChoiceQuestion struct {
	Options             []string
	CorrectIndex        *int
	FallbackCorrectText string
}

// NumericQuestion is any question whose answer format forces numeric matching.
type NumericQuestion struct {
	ExpectedAnswers []string
}

// OpenEndedQuestion is a free-text question.
type OpenEndedQuestion struct {
	ExpectedAnswers []string
}

// UnknownQuestion has no deterministic matcher.
type UnknownQuestion struct{}

func (ChoiceQuestion) Shape() Shape    { return ShapeChoice }
func (NumericQuestion) Shape() Shape   { return ShapeNumeric }
func (OpenEndedQuestion) Shape() Shape { return ShapeOpenEnded }
func (UnknownQuestion) Shape() Shape   { return ShapeUnknown }

func (ChoiceQuestion) variant()    {}
func (NumericQuestion) variant()   {}
func (OpenEndedQuestion) variant() {}
func (UnknownQuestion) variant()   {}

// Classify resolves the matcher variant for q. A numeric answer format wins over Kind.
func Classify(q Question) Variant {
	if q.AnswerFormat.IsNumeric() {
		return NumericQuestion{ExpectedAnswers: q.ExpectedAnswers}
	}

	switch Kind(strings.ToLower(string(q.Kind))) {
	case KindMultipleChoice:
		return ChoiceQuestion{
			Options:             q.Options,
			CorrectIndex:        q.CorrectIndex,
			FallbackCorrectText: q.FallbackCorrectText,
		}
	case KindOpenEnded:
		return OpenEndedQuestion{ExpectedAnswers: q.ExpectedAnswers}
	default:
		return UnknownQuestion{}
	}
}

// IsOpenEnded reports whether the declared kind is open-ended, regardless of format.
func (q Question) IsOpenEnded() bool {
	return Kind(strings.ToLower(string(q.Kind))) == KindOpenEnded
}
