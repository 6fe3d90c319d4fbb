package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchNumericTolerance(t *testing.T) {
	q := NumericQuestion{ExpectedAnswers: []string{"100"}}

	require.True(t, MatchNumeric(q, TextAnswer("100"), DefaultNumericTolerance))
	require.True(t, MatchNumeric(q, TextAnswer("about 104 units"), DefaultNumericTolerance))
	require.True(t, MatchNumeric(q, TextAnswer("95"), DefaultNumericTolerance))
	require.False(t, MatchNumeric(q, TextAnswer("106"), DefaultNumericTolerance))
	require.False(t, MatchNumeric(q, TextAnswer("ninety"), DefaultNumericTolerance))
}

func TestMatchNumericZeroExpected(t *testing.T) {
	q := NumericQuestion{ExpectedAnswers: []string{"0"}}

	require.True(t, MatchNumeric(q, TextAnswer("0"), DefaultNumericTolerance))
	require.True(t, MatchNumeric(q, TextAnswer("0.0"), DefaultNumericTolerance))
	require.False(t, MatchNumeric(q, TextAnswer("0.001"), DefaultNumericTolerance))
}

func TestMatchNumericAnyExpected(t *testing.T) {
	q := NumericQuestion{ExpectedAnswers: []string{"not a number", "3.14", "22/7"}}

	require.True(t, MatchNumeric(q, TextAnswer("3.1"), DefaultNumericTolerance))
	require.True(t, MatchNumeric(q, TextAnswer("22"), DefaultNumericTolerance))
	require.False(t, MatchNumeric(q, TextAnswer("10"), DefaultNumericTolerance))
}

func TestMatchNumericUsesFirstNumber(t *testing.T) {
	q := NumericQuestion{ExpectedAnswers: []string{"5"}}

	require.False(t, MatchNumeric(q, TextAnswer("between 3 and 5"), DefaultNumericTolerance))
	require.True(t, MatchNumeric(q, TextAnswer("5 or maybe 3"), DefaultNumericTolerance))
}

func TestMatchNumericIndexAnswer(t *testing.T) {
	q := NumericQuestion{ExpectedAnswers: []string{"2"}}
	require.True(t, MatchNumeric(q, IndexAnswer(2), DefaultNumericTolerance))
}

func TestMatchNumericNoExpected(t *testing.T) {
	require.False(t, MatchNumeric(NumericQuestion{}, TextAnswer("1"), DefaultNumericTolerance))
}
