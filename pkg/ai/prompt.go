package ai

import (
	"strconv"
	"strings"
)

const judgeSystemPrompt = "You are a strict but fair quiz grader. Respond with JSON only."

func buildJudgePrompt(input SemanticInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question\n")
	builder.WriteString(strings.TrimSpace(input.Question))

	builder.WriteString("\n\n## Expected Answers\n")
	for i, expected := range input.ExpectedAnswers {
		builder.WriteString(strconv.Itoa(i + 1))
		builder.WriteString(". ")
		builder.WriteString(strings.TrimSpace(expected))
		builder.WriteString("\n")
	}

	if explanation := strings.TrimSpace(input.Explanation); explanation != "" {
		builder.WriteString("\n## Explanation\n")
		builder.WriteString(explanation)
		builder.WriteString("\n")
	}
	if background := strings.TrimSpace(input.Context); background != "" {
		builder.WriteString("\n## Context\n")
		builder.WriteString(background)
		builder.WriteString("\n")
	}

	builder.WriteString("\n## Student Answer\n")
	builder.WriteString(strings.TrimSpace(input.Answer))

	builder.WriteString("\n\n## Instructions\n")
	builder.WriteString("Decide whether the student answer means the same as any expected answer.\n")
	builder.WriteString("- Accept paraphrases, synonyms and common phrasing variants.\n")
	builder.WriteString("- Accept answers that are partially worded differently but contain the essential fact.\n")
	builder.WriteString("- Reject answers that are vague, contradict the expected answers, or are missing the key idea.\n")
	builder.WriteString("- Ignore spelling mistakes that do not change the meaning.\n")
	builder.WriteString("Return only this JSON object and nothing else:\n")
	builder.WriteString(`{"isCorrect": true or false, "confidence": number between 0 and 1, "reasoning": "one short sentence"}`)
	return builder.String()
}
