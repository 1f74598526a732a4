// Package synthetic generates labeled adverse-event case records for model
// training. All randomness flows through a single seeded source so a given
// seed reproduces an identical corpus.
package synthetic

import "math/rand"

// intDist is a discrete distribution over small integer outcomes. Weights
// must sum to 1; sampling walks the cumulative mass.
type intDist struct {
	values  []int
	weights []float64
}

func (d intDist) sample(r *rand.Rand) int {
	u := r.Float64()
	acc := 0.0
	for i, w := range d.weights {
		acc += w
		if u < acc {
			return d.values[i]
		}
	}
	return d.values[len(d.values)-1]
}

// Checked-medication count per case. Skewed toward the 3-4 drug regimens
// typical of chronic-disease patients.
var drugCountDist = intDist{
	values:  []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	weights: []float64{0.05, 0.15, 0.20, 0.20, 0.15, 0.10, 0.07, 0.05, 0.02, 0.01},
}

// Contraindicated interactions are rare but dominate the outcome. They only
// appear from three drugs up, with a heavier tail under polypharmacy.
var (
	contraHighDist = intDist{values: []int{0, 1, 2}, weights: []float64{0.80, 0.15, 0.05}}
	contraMidDist  = intDist{values: []int{0, 1}, weights: []float64{0.95, 0.05}}
)

// Serious interactions, by regimen size.
var (
	seriousHighDist = intDist{values: []int{0, 1, 2, 3}, weights: []float64{0.50, 0.30, 0.15, 0.05}}
	seriousMidDist  = intDist{values: []int{0, 1, 2}, weights: []float64{0.70, 0.25, 0.05}}
)

// Poisson rates for the lower interaction tiers, scaled by drug count.
// Significant interactions are capped at the drug count, minor at twice it.
const (
	significantRatePerDrug = 0.3
	minorRatePerDrug       = 0.4
)

// Age bands. The population skews elderly, matching who actually carries
// multi-drug regimens.
type ageBand struct {
	name     string
	min, max int // years, half-open [min, max)
	weight   float64
}

var ageBands = []ageBand{
	{name: "young", min: 18, max: 40, weight: 0.15},
	{name: "middle", min: 40, max: 65, weight: 0.35},
	{name: "elderly", min: 65, max: 95, weight: 0.50},
}

func sampleAgeBand(r *rand.Rand) ageBand {
	u := r.Float64()
	acc := 0.0
	for _, b := range ageBands {
		acc += b.weight
		if u < acc {
			return b
		}
	}
	return ageBands[len(ageBands)-1]
}

// Comorbidity prevalence by age group.
const (
	renalRateGeriatric   = 0.25
	renalRateAdult       = 0.08
	hepaticRateGeriatric = 0.15
	hepaticRateAdult     = 0.05
)

var (
	chronicGeriatricDist = intDist{
		values:  []int{0, 1, 2, 3, 4, 5, 6},
		weights: []float64{0.05, 0.15, 0.25, 0.25, 0.15, 0.10, 0.05},
	}
	chronicAdultDist = intDist{
		values:  []int{0, 1, 2, 3},
		weights: []float64{0.40, 0.35, 0.20, 0.05},
	}
)

var allergyDist = intDist{
	values:  []int{0, 1, 2, 3},
	weights: []float64{0.70, 0.20, 0.08, 0.02},
}

// Label-probability shaping. The event probability starts at risk_score/100
// and is escalated per factor, each escalation with its own cap, then jittered
// with Gaussian noise to simulate clinical variation.
const (
	contraProbFactor  = 2.5
	contraProbCap     = 0.95
	seriousProbFactor = 1.8
	seriousProbCap    = 0.85

	geriatricProbFactor = 1.3
	geriatricProbCap    = 0.90
	organProbFactor     = 1.2
	organProbCap        = 0.90

	labelNoiseSigma = 0.1

	// Safe regimens (no contraindicated or serious interactions, score
	// under 20) have their label forced to 0 at this rate regardless of
	// the sampled outcome.
	safeRegimenScoreCeiling = 20.0
	safeRegimenOverrideRate = 0.92
)
