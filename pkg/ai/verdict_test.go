package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStructured(t *testing.T) {
	result, ok := parseStructured(`{"isCorrect": true, "confidence": 0.82, "reasoning": " same idea "}`)
	require.True(t, ok)
	require.True(t, result.IsCorrect)
	require.Equal(t, 0.82, result.Confidence)
	require.Equal(t, "same idea", result.Reasoning)
	require.Equal(t, OutcomeStructured, result.Outcome)
}

func TestParseStructuredConfidence(t *testing.T) {
	result, ok := parseStructured(`{"isCorrect": false}`)
	require.True(t, ok)
	require.False(t, result.IsCorrect)
	require.Equal(t, defaultVerdictConfidence, result.Confidence)

	result, ok = parseStructured(`{"isCorrect": true, "confidence": 7}`)
	require.True(t, ok)
	require.Equal(t, 1.0, result.Confidence)

	result, ok = parseStructured(`{"isCorrect": true, "confidence": -0.5}`)
	require.True(t, ok)
	require.Equal(t, 0.0, result.Confidence)

	result, ok = parseStructured(`{"isCorrect": true, "confidence": "high"}`)
	require.True(t, ok)
	require.Equal(t, defaultVerdictConfidence, result.Confidence)
}

func TestParseStructuredRejectsMalformed(t *testing.T) {
	inputs := []string{
		``,
		`not json`,
		`{"isCorrect": "true"}`,
		`{"confidence": 0.9}`,
		`[true]`,
		`{"isCorrect": true} trailing`,
		"```json\n{\"isCorrect\": true}\n```",
	}
	for _, input := range inputs {
		_, ok := parseStructured(input)
		require.False(t, ok, "input %q", input)
	}
}

func TestScanHeuristic(t *testing.T) {
	fenced := scanHeuristic("```json\n{\"isCorrect\": true, \"confidence\": 0.9}\n```")
	require.True(t, fenced.IsCorrect)
	require.Equal(t, defaultVerdictConfidence, fenced.Confidence)
	require.Equal(t, heuristicReasoning, fenced.Reasoning)
	require.Equal(t, OutcomeHeuristic, fenced.Outcome)

	negative := scanHeuristic("Sure! {\"isCorrect\": false}")
	require.False(t, negative.IsCorrect)

	truncated := scanHeuristic(`{"reasoning": "matches", "isCorrect": true`)
	require.True(t, truncated.IsCorrect)

	prose := scanHeuristic(`The verdict is is_correct = TRUE because it matches.`)
	require.True(t, prose.IsCorrect)

	unrelated := scanHeuristic(`I cannot decide.`)
	require.False(t, unrelated.IsCorrect)
	require.Equal(t, OutcomeHeuristic, unrelated.Outcome)
}
