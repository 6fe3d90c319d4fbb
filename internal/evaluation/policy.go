package evaluation

// Default policy values. The tolerance and match ratio are tuning knobs kept at
// the values existing quiz content was authored against; they are not derived.
const (
	DefaultNumericTolerance    = 0.05
	DefaultFuzzyMatchRatio     = 0.7
	DefaultMinEscalationLength = 5
	DefaultMatchConfidence     = 0.9
	DefaultMissConfidence      = 0.3
)

// Policy holds the tunable thresholds of the engine.
type Policy struct {
	// NumericTolerance is relative: |expected| * NumericTolerance.
	NumericTolerance float64
	// FuzzyMatchRatio is the share of significant expected words that must appear in the answer.
	FuzzyMatchRatio float64
	// MinEscalationLength is exclusive: answers must be longer to reach the semantic judge.
	MinEscalationLength int
	// MatchConfidence and MissConfidence must lie in (0, 1]; zero means the default.
	MatchConfidence float64
	MissConfidence  float64
}

// DefaultPolicy returns the standard engine policy.
func DefaultPolicy() Policy {
	return Policy{
		NumericTolerance:    DefaultNumericTolerance,
		FuzzyMatchRatio:     DefaultFuzzyMatchRatio,
		MinEscalationLength: DefaultMinEscalationLength,
		MatchConfidence:     DefaultMatchConfidence,
		MissConfidence:      DefaultMissConfidence,
	}
}

func (p Policy) withDefaults() Policy {
	defaults := DefaultPolicy()
	if p == (Policy{}) {
		return defaults
	}
	if p.NumericTolerance < 0 {
		p.NumericTolerance = defaults.NumericTolerance
	}
	if p.FuzzyMatchRatio <= 0 || p.FuzzyMatchRatio > 1 {
		p.FuzzyMatchRatio = defaults.FuzzyMatchRatio
	}
	if p.MinEscalationLength < 0 {
		p.MinEscalationLength = defaults.MinEscalationLength
	}
	if p.MatchConfidence <= 0 || p.MatchConfidence > 1 {
		p.MatchConfidence = defaults.MatchConfidence
	}
	if p.MissConfidence <= 0 || p.MissConfidence > 1 {
		p.MissConfidence = defaults.MissConfidence
	}
	return p
}
