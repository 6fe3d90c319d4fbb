package ai

import (
	"encoding/json"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const (
	defaultVerdictConfidence = 0.5
	heuristicReasoning       = "parsing error, used fallback evaluation"
)

const verdictSchemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["isCorrect"],
	"properties": {
		"isCorrect": {"type": "boolean"}
	}
}`

var (
	verdictSchema = jsonschema.MustCompileString("verdict.schema.json", verdictSchemaSource)

	affirmativeMarker = regexp.MustCompile(`(?i)"?is_?correct"?\s*[:=]\s*"?true\b`)
)

// parseStructured decodes a well-formed verdict. It reports false when raw is not
// a JSON object or isCorrect is missing or not a boolean.
func parseStructured(raw string) (SemanticResult, bool) {
	decoder := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	decoder.UseNumber()

	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return SemanticResult{}, false
	}
	if _, err := decoder.Token(); err != io.EOF {
		return SemanticResult{}, false
	}
	if err := verdictSchema.Validate(doc); err != nil {
		return SemanticResult{}, false
	}

	object := doc.(map[string]interface{})
	result := SemanticResult{
		IsCorrect:  object["isCorrect"].(bool),
		Confidence: confidenceOf(object["confidence"]),
		Outcome:    OutcomeStructured,
	}
	if reasoning, ok := object["reasoning"].(string); ok {
		result.Reasoning = strings.TrimSpace(reasoning)
	}
	return result, true
}

// scanHeuristic salvages a verdict from output that is not valid JSON, such as
// fenced or truncated objects. Anything without an affirmative marker is incorrect.
func scanHeuristic(raw string) SemanticResult {
	result := SemanticResult{
		Confidence: defaultVerdictConfidence,
		Reasoning:  heuristicReasoning,
		Outcome:    OutcomeHeuristic,
	}

	if start := strings.IndexByte(raw, '{'); start >= 0 {
		switch gjson.Get(raw[start:], "isCorrect").Type {
		case gjson.True:
			result.IsCorrect = true
			return result
		case gjson.False:
			return result
		}
	}

	result.IsCorrect = affirmativeMarker.MatchString(raw)
	return result
}

func confidenceOf(value interface{}) float64 {
	var confidence float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return defaultVerdictConfidence
		}
		confidence = parsed
	case float64:
		confidence = v
	default:
		return defaultVerdictConfidence
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return defaultVerdictConfidence
	}
	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
