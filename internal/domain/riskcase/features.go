package riskcase

// NumFeatures is the fixed dimensionality of the feature vector.
const NumFeatures = 12

// Feature indices. The order is a contract: the classifier consumes
// positional arrays and persisted importance maps key off FeatureNames.
const (
	FeatNumDrugs = iota
	FeatNumContraindicated
	FeatNumSerious
	FeatNumSignificant
	FeatNumMinor
	FeatPatientAge
	FeatIsGeriatric
	FeatHasRenalImpairment
	FeatHasHepaticImpairment
	FeatNumChronicConditions
	FeatPolypharmacy
	FeatNumAllergies
)

// FeatureNames lists the feature names in vector order.
var FeatureNames = [NumFeatures]string{
	"num_drugs",
	"num_contraindicated",
	"num_serious",
	"num_significant",
	"num_minor",
	"patient_age",
	"is_geriatric",
	"has_renal_impairment",
	"has_hepatic_impairment",
	"num_chronic_conditions",
	"polypharmacy",
	"num_allergies",
}

// FeatureVector is a fixed-shape numeric projection of a case record.
type FeatureVector [NumFeatures]float64

// Derive maps a case record to its feature vector. Pure and total: it never
// fails for a structurally valid record, and missing optional fields read as
// zero. The geriatric and polypharmacy flags are recomputed from the source
// fields rather than trusted from caller metadata.
func Derive(c CaseRecord) FeatureVector {
	var f FeatureVector
	f[FeatNumDrugs] = float64(len(c.DrugsChecked))
	f[FeatNumContraindicated] = float64(c.SeverityCount(SeverityContraindicated))
	f[FeatNumSerious] = float64(c.SeverityCount(SeveritySerious))
	f[FeatNumSignificant] = float64(c.SeverityCount(SeveritySignificant))
	f[FeatNumMinor] = float64(c.SeverityCount(SeverityMinor))
	f[FeatPatientAge] = float64(c.PatientAge)
	f[FeatIsGeriatric] = boolToFloat(c.IsGeriatric())
	f[FeatHasRenalImpairment] = boolToFloat(c.HasRenalImpairment)
	f[FeatHasHepaticImpairment] = boolToFloat(c.HasHepaticImpairment)
	f[FeatNumChronicConditions] = float64(c.NumChronicConditions)
	f[FeatPolypharmacy] = boolToFloat(c.IsPolypharmacy())
	f[FeatNumAllergies] = float64(len(c.AllergyAlerts))
	return f
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
