package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchChoiceByIndex(t *testing.T) {
	q := ChoiceQuestion{Options: []string{"Berlin", "Paris", "Rome"}, CorrectIndex: intPtr(1)}

	require.True(t, MatchChoice(q, IndexAnswer(1)))
	require.False(t, MatchChoice(q, IndexAnswer(0)))
	require.False(t, MatchChoice(q, IndexAnswer(7)))
	require.False(t, MatchChoice(q, IndexAnswer(-1)))
}

func TestMatchChoiceByText(t *testing.T) {
	q := ChoiceQuestion{Options: []string{"Berlin", "Paris", "Rome"}, CorrectIndex: intPtr(1)}

	require.True(t, MatchChoice(q, TextAnswer("paris")))
	require.True(t, MatchChoice(q, TextAnswer("  PARIS! ")))
	require.False(t, MatchChoice(q, TextAnswer("Rome")))
	require.False(t, MatchChoice(q, TextAnswer("")))
}

func TestMatchChoiceFallbackText(t *testing.T) {
	q := ChoiceQuestion{Options: []string{"Mercury", "Venus", "Mars"}, FallbackCorrectText: "venus"}

	require.True(t, MatchChoice(q, IndexAnswer(1)))
	require.False(t, MatchChoice(q, IndexAnswer(0)))
	require.False(t, MatchChoice(q, IndexAnswer(3)))
	require.True(t, MatchChoice(q, TextAnswer("Venus")))
}

func TestMatchChoiceDefaultsToFirstOption(t *testing.T) {
	q := ChoiceQuestion{Options: []string{"True", "False"}}

	require.True(t, MatchChoice(q, IndexAnswer(0)))
	require.True(t, MatchChoice(q, TextAnswer("true")))
	require.False(t, MatchChoice(q, IndexAnswer(1)))
}

func TestMatchChoiceFailsClosed(t *testing.T) {
	require.False(t, MatchChoice(ChoiceQuestion{}, TextAnswer("anything")))
	require.False(t, MatchChoice(ChoiceQuestion{}, IndexAnswer(0)))
	require.False(t, MatchChoice(ChoiceQuestion{Options: []string{"!!!"}}, TextAnswer("")))

	outOfRange := ChoiceQuestion{Options: []string{"a", "b"}, CorrectIndex: intPtr(5), FallbackCorrectText: "b"}
	require.True(t, MatchChoice(outOfRange, TextAnswer("b")))
	require.False(t, MatchChoice(outOfRange, IndexAnswer(1)))
}
