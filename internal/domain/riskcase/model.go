package riskcase

import (
	"fmt"
	"time"
)

// Severity is an interaction severity tier. Tiers form a total ordering of
// danger: CONTRAINDICATED > SERIOUS > SIGNIFICANT > MINOR.
type Severity string

const (
	SeverityContraindicated Severity = "CONTRAINDICATED"
	SeveritySerious         Severity = "SERIOUS"
	SeveritySignificant     Severity = "SIGNIFICANT"
	SeverityMinor           Severity = "MINOR"
)

// Severities lists all tiers in descending danger order.
var Severities = []Severity{
	SeverityContraindicated,
	SeveritySerious,
	SeveritySignificant,
	SeverityMinor,
}

// MaxPatientAge is the upper bound of the patient_age domain. Records
// beyond it are treated as data errors rather than outliers.
const MaxPatientAge = 120

// DrugRef identifies one checked medication.
type DrugRef struct {
	DrugID   string `json:"drug_id"`
	DrugName string `json:"drug_name"`
}

// CaseRecord is one patient-medication scenario: the unit of training and
// inference. The metadata fields at the bottom are carried for analysis only
// and are never fed into the model.
type CaseRecord struct {
	DrugsChecked         []DrugRef        `json:"drugs_checked"`
	SeveritySummary      map[Severity]int `json:"severity_summary"`
	AllergyAlerts        []string         `json:"allergy_alerts"`
	PatientAge           int              `json:"patient_age"`
	HasRenalImpairment   bool             `json:"has_renal_impairment"`
	HasHepaticImpairment bool             `json:"has_hepatic_impairment"`
	NumChronicConditions int              `json:"num_chronic_conditions"`

	// Target label (training only): 1 if an adverse event occurred.
	AdverseEventOccurred int `json:"adverse_event_occurred"`

	// Metadata for analysis, excluded from the feature vector.
	RiskScore               float64   `json:"risk_score"`
	AdverseEventProbability float64   `json:"adverse_event_probability"`
	AgeGroup                string    `json:"age_group,omitempty"`
	GeneratedAt             time.Time `json:"generated_at"`
}

// SeverityCount returns the interaction count at the given tier, treating a
// missing entry or a nil map as zero.
func (c CaseRecord) SeverityCount(s Severity) int {
	if c.SeveritySummary == nil {
		return 0
	}
	return c.SeveritySummary[s]
}

// IsGeriatric reports whether the patient is 65 or older. Always recomputed
// from the age so stored metadata can never disagree with derived features.
func (c CaseRecord) IsGeriatric() bool {
	return c.PatientAge >= 65
}

// IsPolypharmacy reports whether five or more medications are checked.
func (c CaseRecord) IsPolypharmacy() bool {
	return len(c.DrugsChecked) >= 5
}

// Validate checks required-field presence for training. It deliberately does
// not re-check generation-time invariants such as num_significant <= num_drugs
// so that real outcome data violating them can still train.
func (c CaseRecord) Validate() error {
	if len(c.DrugsChecked) == 0 {
		return fmt.Errorf("drugs_checked is required")
	}
	if c.SeveritySummary == nil {
		return fmt.Errorf("severity_summary is required")
	}
	if c.PatientAge < 0 || c.PatientAge > MaxPatientAge {
		return fmt.Errorf("patient_age %d out of range", c.PatientAge)
	}
	if c.NumChronicConditions < 0 {
		return fmt.Errorf("num_chronic_conditions must be non-negative")
	}
	if c.AdverseEventOccurred != 0 && c.AdverseEventOccurred != 1 {
		return fmt.Errorf("adverse_event_occurred must be 0 or 1, got %d", c.AdverseEventOccurred)
	}
	return nil
}
