package prediction

import (
	"fmt"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// RiskCategory buckets a 0-100 risk score for display and alert routing.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// Category thresholds on the risk-score scale.
const (
	moderateThreshold = 25.0
	highThreshold     = 50.0
	criticalThreshold = 75.0
)

// Categorize maps a risk score to its category.
func Categorize(score float64) RiskCategory {
	switch {
	case score < moderateThreshold:
		return RiskLow
	case score < highThreshold:
		return RiskModerate
	case score < criticalThreshold:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Result is the outcome of a single risk prediction, in either mode.
type Result struct {
	RiskScore               float64      `json:"risk_score"`
	RiskCategory            RiskCategory `json:"risk_category"`
	ProbabilityAdverseEvent float64      `json:"probability_adverse_event"`
	Confidence              float64      `json:"confidence"`
	ContributingFactors     []string     `json:"contributing_factors,omitempty"`

	// Source and ModelVersion identify how the score was produced.
	// MLAvailable is false and ModelVersion empty in rule-based fallback
	// mode.
	Source       string `json:"source"`
	MLAvailable  bool   `json:"ml_available"`
	ModelVersion string `json:"model_version,omitempty"`
}

// contributingFactors lists the case attributes that elevated this score, in
// descending clinical weight. Advisory text only; never fed back into scoring.
func contributingFactors(c riskcase.CaseRecord) []string {
	var factors []string

	if n := c.SeverityCount(riskcase.SeverityContraindicated); n > 0 {
		factors = append(factors, fmt.Sprintf("%d contraindicated drug interaction(s)", n))
	}
	if n := c.SeverityCount(riskcase.SeveritySerious); n > 0 {
		factors = append(factors, fmt.Sprintf("%d serious drug interaction(s)", n))
	}
	if c.IsPolypharmacy() {
		factors = append(factors, fmt.Sprintf("polypharmacy (%d medications)", len(c.DrugsChecked)))
	}
	if c.PatientAge >= 80 {
		factors = append(factors, fmt.Sprintf("advanced age (%d years)", c.PatientAge))
	} else if c.IsGeriatric() {
		factors = append(factors, fmt.Sprintf("geriatric patient (%d years)", c.PatientAge))
	}
	if c.HasRenalImpairment {
		factors = append(factors, "renal impairment")
	}
	if c.HasHepaticImpairment {
		factors = append(factors, "hepatic impairment")
	}
	if c.NumChronicConditions >= 3 {
		factors = append(factors, fmt.Sprintf("%d chronic conditions", c.NumChronicConditions))
	}
	if n := len(c.AllergyAlerts); n > 0 {
		factors = append(factors, fmt.Sprintf("%d documented allergy alert(s)", n))
	}

	return factors
}
