package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// commonDrugs is the medication vocabulary cases draw from. Drug IDs are
// positional within each case, allergy IDs within the allergy list.
var commonDrugs = []string{
	"Warfarin", "Aspirin", "Metformin", "Lisinopril", "Amlodipine",
	"Atorvastatin", "Omeprazole", "Metoprolol", "Levothyroxine", "Losartan",
	"Gabapentin", "Hydrochlorothiazide", "Albuterol", "Sertraline", "Furosemide",
}

// Generator produces labeled case records with realistic correlations between
// regimen size, interaction severity, patient age, comorbidity, and outcome.
// It is not safe for concurrent use; each goroutine should own its own
// Generator.
type Generator struct {
	rng    *rand.Rand
	anchor time.Time
}

// NewGenerator returns a generator whose output is fully determined by seed
// and anchor. The anchor fixes the reference point for generated_at
// timestamps, which are back-dated up to a year.
func NewGenerator(seed int64, anchor time.Time) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		anchor: anchor,
	}
}

// Generate produces exactly n case records in insertion order.
func (g *Generator) Generate(n int) []riskcase.CaseRecord {
	cases := make([]riskcase.CaseRecord, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, g.generateOne())
	}
	return cases
}

func (g *Generator) generateOne() riskcase.CaseRecord {
	numDrugs := drugCountDist.sample(g.rng)
	drugs := g.sampleDrugs(numDrugs)

	var numContra int
	switch {
	case numDrugs >= 5:
		numContra = contraHighDist.sample(g.rng)
	case numDrugs >= 3:
		numContra = contraMidDist.sample(g.rng)
	}

	var numSerious int
	switch {
	case numDrugs >= 4:
		numSerious = seriousHighDist.sample(g.rng)
	case numDrugs >= 2:
		numSerious = seriousMidDist.sample(g.rng)
	}

	var numSignificant int
	if numDrugs >= 2 {
		numSignificant = g.poisson(float64(numDrugs) * significantRatePerDrug)
		if numSignificant > numDrugs {
			numSignificant = numDrugs
		}
	}

	numMinor := g.poisson(float64(numDrugs) * minorRatePerDrug)
	if numMinor > numDrugs*2 {
		numMinor = numDrugs * 2
	}

	band := sampleAgeBand(g.rng)
	age := band.min + g.rng.Intn(band.max-band.min)
	geriatric := age >= 65

	var (
		renal, hepatic bool
		chronic        int
	)
	if geriatric {
		renal = g.rng.Float64() < renalRateGeriatric
		hepatic = g.rng.Float64() < hepaticRateGeriatric
		chronic = chronicGeriatricDist.sample(g.rng)
	} else {
		renal = g.rng.Float64() < renalRateAdult
		hepatic = g.rng.Float64() < hepaticRateAdult
		chronic = chronicAdultDist.sample(g.rng)
	}

	numAllergies := allergyDist.sample(g.rng)
	allergies := make([]string, numAllergies)
	for j := range allergies {
		allergies[j] = fmt.Sprintf("ALLERGY_%d", j)
	}

	c := riskcase.CaseRecord{
		DrugsChecked: drugs,
		SeveritySummary: map[riskcase.Severity]int{
			riskcase.SeverityContraindicated: numContra,
			riskcase.SeveritySerious:         numSerious,
			riskcase.SeveritySignificant:     numSignificant,
			riskcase.SeverityMinor:           numMinor,
		},
		AllergyAlerts:        allergies,
		PatientAge:           age,
		HasRenalImpairment:   renal,
		HasHepaticImpairment: hepatic,
		NumChronicConditions: chronic,
		AgeGroup:             band.name,
		GeneratedAt:          g.anchor.AddDate(0, 0, -g.rng.Intn(366)),
	}

	c.RiskScore = riskcase.RuleScore(c)
	c.AdverseEventProbability = g.labelProbability(c)
	if g.rng.Float64() < c.AdverseEventProbability {
		c.AdverseEventOccurred = 1
	}

	// Safe regimens almost never produce events, whatever the sampled
	// probability said.
	if numContra == 0 && numSerious == 0 && c.RiskScore < safeRegimenScoreCeiling {
		if g.rng.Float64() < safeRegimenOverrideRate {
			c.AdverseEventOccurred = 0
		}
	}

	return c
}

// labelProbability shapes the event probability from the rule score and the
// dominant risk factors, then adds Gaussian noise for clinical variation.
func (g *Generator) labelProbability(c riskcase.CaseRecord) float64 {
	p := c.RiskScore / riskcase.MaxRuleScore

	if c.SeverityCount(riskcase.SeverityContraindicated) > 0 {
		p = math.Min(p*contraProbFactor, contraProbCap)
	} else if c.SeverityCount(riskcase.SeveritySerious) > 0 {
		p = math.Min(p*seriousProbFactor, seriousProbCap)
	}
	if c.IsGeriatric() {
		p = math.Min(p*geriatricProbFactor, geriatricProbCap)
	}
	if c.HasRenalImpairment || c.HasHepaticImpairment {
		p = math.Min(p*organProbFactor, organProbCap)
	}

	p += g.rng.NormFloat64() * labelNoiseSigma
	return math.Max(0, math.Min(1, p))
}

// sampleDrugs draws n distinct medications from the vocabulary.
func (g *Generator) sampleDrugs(n int) []riskcase.DrugRef {
	if n > len(commonDrugs) {
		n = len(commonDrugs)
	}
	perm := g.rng.Perm(len(commonDrugs))
	drugs := make([]riskcase.DrugRef, n)
	for j := 0; j < n; j++ {
		drugs[j] = riskcase.DrugRef{
			DrugID:   fmt.Sprintf("DRUG_%d", j),
			DrugName: commonDrugs[perm[j]],
		}
	}
	return drugs
}

// poisson samples a Poisson variate by Knuth's product method. The rates in
// play are small (at most a few events per case) so the O(lambda) loop is
// fine.
func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
