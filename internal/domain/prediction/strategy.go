package prediction

import (
	"math"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// Strategy names reported in prediction results.
const (
	SourceLearnedModel = "learned_model"
	SourceRuleBased    = "rule_based"
)

// FallbackConfidence is the fixed confidence reported in rule-based mode. It
// signals reduced trust compared with a learned model's margin-derived value.
const FallbackConfidence = 0.5

// Strategy turns a case record into a prediction result. Implementations
// never fail; a case that cannot be scored one way is scored another.
type Strategy interface {
	Predict(c riskcase.CaseRecord) Result
	Name() string
}

// RuleBasedStrategy scores with the deterministic weighted-sum rules. It is
// the degraded mode used whenever no trained model is loaded.
type RuleBasedStrategy struct{}

func (RuleBasedStrategy) Name() string { return SourceRuleBased }

func (RuleBasedStrategy) Predict(c riskcase.CaseRecord) Result {
	score := riskcase.RuleScore(c)
	return Result{
		RiskScore:               score,
		RiskCategory:            Categorize(score),
		ProbabilityAdverseEvent: score / riskcase.MaxRuleScore,
		Confidence:              FallbackConfidence,
		ContributingFactors:     contributingFactors(c),
		Source:                  SourceRuleBased,
		MLAvailable:             false,
	}
}

// LearnedModelStrategy scores with a trained artifact. Confidence is the
// classifier's class-probability margin: |p - 0.5| * 2, so a coin-flip
// probability reports 0 and a certain one reports 1.
type LearnedModelStrategy struct {
	artifact *Artifact
}

func (s LearnedModelStrategy) Name() string { return SourceLearnedModel }

func (s LearnedModelStrategy) Predict(c riskcase.CaseRecord) Result {
	p := s.artifact.Forest.PredictProba(riskcase.Derive(c))
	score := p * 100
	return Result{
		RiskScore:               score,
		RiskCategory:            Categorize(score),
		ProbabilityAdverseEvent: p,
		Confidence:              math.Abs(p-0.5) * 2,
		ContributingFactors:     contributingFactors(c),
		Source:                  SourceLearnedModel,
		MLAvailable:             true,
		ModelVersion:            s.artifact.Version,
	}
}
