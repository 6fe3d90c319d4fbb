package ai

import "context"

// ChatRequest is a single-turn request to a chat model.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	// JSONResponse asks the provider to constrain the output to a JSON object.
	JSONResponse bool
}

// Usage reports token accounting returned by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the raw model output.
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// ChatModel describes a language model provider.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
	Model() string
}

// SemanticInput carries everything the judge sees about one answer.
type SemanticInput struct {
	Question        string
	Answer          string
	ExpectedAnswers []string
	Explanation     string
	Context         string
}

// SemanticOutcome records how a semantic verdict was produced.
type SemanticOutcome string

// Semantic outcomes. Only structured and heuristic verdicts carry a model judgement.
const (
	OutcomeStructured SemanticOutcome = "structured"
	OutcomeHeuristic  SemanticOutcome = "heuristic"
	OutcomeRejected   SemanticOutcome = "rejected"
	OutcomeFailed     SemanticOutcome = "failed"
)

// SemanticResult is the judge's verdict on one answer.
type SemanticResult struct {
	IsCorrect  bool            `json:"isCorrect"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	Outcome    SemanticOutcome `json:"outcome"`
}

// Usable reports whether the verdict came from the model rather than a failure path.
func (r SemanticResult) Usable() bool {
	return r.Outcome == OutcomeStructured || r.Outcome == OutcomeHeuristic
}

// EvaluatorStatus describes the semantic judge for operators.
type EvaluatorStatus struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	CircuitState string `json:"circuit_state"`
	Failures     int    `json:"failures"`
}
