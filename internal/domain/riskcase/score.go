package riskcase

// Per-event weights for the deterministic rule-based score.
const (
	WeightContraindicated = 30.0
	WeightSerious         = 15.0
	WeightSignificant     = 7.0
	WeightMinor           = 2.0

	// Additive increments applied after the multipliers.
	WeightPerAllergy          = 10.0
	WeightPerChronicCondition = 3.0
)

// Escalation multipliers. They compose multiplicatively in the order applied
// in RuleScore: age, renal, hepatic, polypharmacy.
const (
	MultiplierAge80Plus    = 1.4
	MultiplierGeriatric    = 1.3
	MultiplierRenal        = 1.25
	MultiplierHepatic      = 1.25
	MultiplierPolypharmacy = 1.2
)

// MaxRuleScore is the clamp ceiling for the rule-based score.
const MaxRuleScore = 100.0

// RuleScore computes the deterministic rule-based risk score on a 0-100
// scale: a weighted sum of interaction-tier counts, escalated by patient
// factors, plus allergy and chronic-condition increments, clamped at 100.
func RuleScore(c CaseRecord) float64 {
	score := float64(c.SeverityCount(SeverityContraindicated))*WeightContraindicated +
		float64(c.SeverityCount(SeveritySerious))*WeightSerious +
		float64(c.SeverityCount(SeveritySignificant))*WeightSignificant +
		float64(c.SeverityCount(SeverityMinor))*WeightMinor

	if c.PatientAge >= 80 {
		score *= MultiplierAge80Plus
	} else if c.IsGeriatric() {
		score *= MultiplierGeriatric
	}
	if c.HasRenalImpairment {
		score *= MultiplierRenal
	}
	if c.HasHepaticImpairment {
		score *= MultiplierHepatic
	}
	if c.IsPolypharmacy() {
		score *= MultiplierPolypharmacy
	}

	score += float64(len(c.AllergyAlerts)) * WeightPerAllergy
	score += float64(c.NumChronicConditions) * WeightPerChronicCondition

	if score > MaxRuleScore {
		score = MaxRuleScore
	}
	return score
}
