package riskcase

import (
	"math"
	"testing"
)

func baseCase() CaseRecord {
	return CaseRecord{
		DrugsChecked: []DrugRef{
			{DrugID: "DRUG_0", DrugName: "Warfarin"},
			{DrugID: "DRUG_1", DrugName: "Aspirin"},
		},
		SeveritySummary: map[Severity]int{},
		PatientAge:      30,
	}
}

func TestRuleScore_SingleContraindicated(t *testing.T) {
	c := baseCase()
	c.SeveritySummary[SeverityContraindicated] = 1

	got := RuleScore(c)
	if got != 30 {
		t.Errorf("expected score 30 for one contraindicated interaction, got %v", got)
	}
}

func TestRuleScore_AgeEscalation(t *testing.T) {
	c := baseCase()
	c.SeveritySummary[SeverityContraindicated] = 1
	c.PatientAge = 85

	got := RuleScore(c)
	if got != 42 {
		t.Errorf("expected score 42 for contraindicated interaction at age 85, got %v", got)
	}

	c.PatientAge = 70
	got = RuleScore(c)
	if got != 39 {
		t.Errorf("expected score 39 for contraindicated interaction at age 70, got %v", got)
	}
}

func TestRuleScore_ZeroCase(t *testing.T) {
	c := CaseRecord{
		DrugsChecked:    []DrugRef{{DrugID: "DRUG_2", DrugName: "Metformin"}},
		SeveritySummary: map[Severity]int{},
		PatientAge:      30,
	}
	if got := RuleScore(c); got != 0 {
		t.Errorf("expected score 0 for interaction-free case, got %v", got)
	}
}

func TestRuleScore_ClampsAt100(t *testing.T) {
	c := baseCase()
	c.SeveritySummary[SeverityContraindicated] = 5
	c.PatientAge = 90
	c.HasRenalImpairment = true
	c.HasHepaticImpairment = true
	c.NumChronicConditions = 6
	c.AllergyAlerts = []string{"ALLERGY_0", "ALLERGY_1", "ALLERGY_2"}

	if got := RuleScore(c); got != MaxRuleScore {
		t.Errorf("expected score clamped at %v, got %v", MaxRuleScore, got)
	}
}

func TestRuleScore_AdditiveTermsAfterMultipliers(t *testing.T) {
	c := baseCase()
	c.SeveritySummary[SeveritySerious] = 1
	c.PatientAge = 85
	c.AllergyAlerts = []string{"ALLERGY_0"}
	c.NumChronicConditions = 2

	// 15 * 1.4 = 21, then + 10 + 6. Allergies and chronic conditions are
	// never escalated by the age multiplier.
	want := 21.0 + 10.0 + 6.0
	if got := RuleScore(c); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected score %v, got %v", want, got)
	}
}

func TestRuleScore_PolypharmacyMultiplier(t *testing.T) {
	c := baseCase()
	c.SeveritySummary[SeveritySignificant] = 2
	for i := 2; i < 5; i++ {
		c.DrugsChecked = append(c.DrugsChecked, DrugRef{DrugID: "DRUG_3", DrugName: "Lisinopril"})
	}

	// 14 * 1.2 with five drugs checked.
	if got := RuleScore(c); math.Abs(got-16.8) > 1e-9 {
		t.Errorf("expected score 16.8, got %v", got)
	}
}

func TestRuleScore_MonotoneInSeverityCounts(t *testing.T) {
	c := baseCase()
	prev := RuleScore(c)
	for i := 1; i <= 3; i++ {
		c.SeveritySummary[SeverityContraindicated] = i
		got := RuleScore(c)
		if got < prev {
			t.Fatalf("score decreased from %v to %v when adding a contraindicated interaction", prev, got)
		}
		prev = got
	}
}
