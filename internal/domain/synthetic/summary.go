package synthetic

import "github.com/rxguard/rxguard/internal/domain/riskcase"

// Stats summarizes a corpus: class balance, severity totals, demographics,
// and regimen size. The CLI prints it after generation so obviously skewed
// corpora are caught before training.
type Stats struct {
	Total         int
	AdverseEvents int

	MeanRiskScore float64
	MinRiskScore  float64
	MaxRiskScore  float64

	SeverityTotals map[riskcase.Severity]int

	MeanAge           float64
	GeriatricCount    int
	RenalCount        int
	HepaticCount      int
	MeanDrugCount     float64
	PolypharmacyCount int
}

// EventRate is the adverse-event fraction of the corpus.
func (s Stats) EventRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.AdverseEvents) / float64(s.Total)
}

// Summarize computes corpus statistics in one pass.
func Summarize(cases []riskcase.CaseRecord) Stats {
	s := Stats{
		SeverityTotals: make(map[riskcase.Severity]int, len(riskcase.Severities)),
	}
	if len(cases) == 0 {
		return s
	}

	s.Total = len(cases)
	s.MinRiskScore = cases[0].RiskScore
	s.MaxRiskScore = cases[0].RiskScore

	var scoreSum, ageSum, drugSum float64
	for _, c := range cases {
		s.AdverseEvents += c.AdverseEventOccurred

		scoreSum += c.RiskScore
		if c.RiskScore < s.MinRiskScore {
			s.MinRiskScore = c.RiskScore
		}
		if c.RiskScore > s.MaxRiskScore {
			s.MaxRiskScore = c.RiskScore
		}

		for _, sev := range riskcase.Severities {
			s.SeverityTotals[sev] += c.SeverityCount(sev)
		}

		ageSum += float64(c.PatientAge)
		if c.IsGeriatric() {
			s.GeriatricCount++
		}
		if c.HasRenalImpairment {
			s.RenalCount++
		}
		if c.HasHepaticImpairment {
			s.HepaticCount++
		}

		drugSum += float64(len(c.DrugsChecked))
		if c.IsPolypharmacy() {
			s.PolypharmacyCount++
		}
	}

	n := float64(s.Total)
	s.MeanRiskScore = scoreSum / n
	s.MeanAge = ageSum / n
	s.MeanDrugCount = drugSum / n
	return s
}
