package main

import (
	"fmt"
	"sort"

	"github.com/rxguard/rxguard/internal/domain/prediction"
	"github.com/rxguard/rxguard/internal/domain/riskcase"
	"github.com/rxguard/rxguard/internal/domain/synthetic"
)

func printCorpusSummary(s synthetic.Stats) {
	fmt.Println("Corpus statistics")
	fmt.Println("-----------------")
	fmt.Printf("Total cases:        %d\n", s.Total)
	fmt.Printf("Adverse events:     %d (%.1f%%)\n", s.AdverseEvents, s.EventRate()*100)
	fmt.Printf("Risk score:         mean %.1f, range [%.1f, %.1f]\n",
		s.MeanRiskScore, s.MinRiskScore, s.MaxRiskScore)
	fmt.Printf("Interactions:       %d contraindicated, %d serious, %d significant, %d minor\n",
		s.SeverityTotals[riskcase.SeverityContraindicated],
		s.SeverityTotals[riskcase.SeveritySerious],
		s.SeverityTotals[riskcase.SeveritySignificant],
		s.SeverityTotals[riskcase.SeverityMinor])
	fmt.Printf("Mean age:           %.1f years (%d geriatric)\n", s.MeanAge, s.GeriatricCount)
	fmt.Printf("Organ impairment:   %d renal, %d hepatic\n", s.RenalCount, s.HepaticCount)
	fmt.Printf("Drugs per case:     mean %.1f (%d polypharmacy)\n",
		s.MeanDrugCount, s.PolypharmacyCount)
}

func printTrainingReport(a *prediction.Artifact) {
	m := a.Metrics
	fmt.Println("Training report")
	fmt.Println("---------------")
	fmt.Printf("Model version:      %s\n", a.Version)
	fmt.Printf("Split:              %d train / %d test\n", m.TrainingSamples, m.TestSamples)
	fmt.Println()
	fmt.Printf("%-12s %8s   %s\n", "Metric", "Score", "Interpretation")
	fmt.Printf("%-12s %7.2f%%   %s\n", "Accuracy", m.Accuracy*100, interpretAccuracy(m.Accuracy))
	fmt.Printf("%-12s %7.2f%%   %s\n", "Precision", m.Precision*100, interpretPrecision(m.Precision))
	fmt.Printf("%-12s %7.2f%%   %s\n", "Recall", m.Recall*100, interpretRecall(m.Recall))
	fmt.Printf("%-12s %8.3f   %s\n", "ROC-AUC", m.ROCAUC, interpretROCAUC(m.ROCAUC))
	fmt.Println()

	fmt.Println("Top features by importance:")
	type feat struct {
		name   string
		weight float64
	}
	feats := make([]feat, 0, len(a.FeatureImportance))
	for name, w := range a.FeatureImportance {
		feats = append(feats, feat{name, w})
	}
	sort.Slice(feats, func(i, j int) bool { return feats[i].weight > feats[j].weight })
	for i, f := range feats {
		if i == 5 {
			break
		}
		bar := ""
		for b := 0; b < int(f.weight*30); b++ {
			bar += "#"
		}
		fmt.Printf("  %d. %-24s %-10s %.3f\n", i+1, f.name, bar, f.weight)
	}
}

func printSamplePrediction(res prediction.Result) {
	fmt.Println("Sample prediction:")
	fmt.Printf("  Risk score:       %.1f/100\n", res.RiskScore)
	fmt.Printf("  Risk category:    %s\n", res.RiskCategory)
	fmt.Printf("  Event probability: %.1f%%\n", res.ProbabilityAdverseEvent*100)
	fmt.Printf("  Confidence:       %.1f%%\n", res.Confidence*100)
}

func printTrainingTroubleshooting() {
	fmt.Println()
	fmt.Println("Troubleshooting:")
	fmt.Println("  1. Check the training corpus exists and is valid JSON (riskctl generate)")
	fmt.Println("  2. Check the corpus carries both outcome classes; regenerate with a different seed if not")
	fmt.Println("  3. Check the model directory is writable")
}

func interpretAccuracy(score float64) string {
	switch {
	case score >= 0.90:
		return "Excellent"
	case score >= 0.80:
		return "Good"
	case score >= 0.70:
		return "Fair"
	default:
		return "Needs improvement"
	}
}

func interpretPrecision(score float64) string {
	switch {
	case score >= 0.85:
		return "Excellent"
	case score >= 0.75:
		return "Good"
	case score >= 0.65:
		return "Fair"
	default:
		return "Low"
	}
}

func interpretRecall(score float64) string {
	switch {
	case score >= 0.85:
		return "Excellent"
	case score >= 0.75:
		return "Good"
	case score >= 0.65:
		return "Fair"
	default:
		return "Low - may miss events"
	}
}

func interpretROCAUC(score float64) string {
	switch {
	case score >= 0.90:
		return "Excellent"
	case score >= 0.80:
		return "Good"
	case score >= 0.70:
		return "Fair"
	default:
		return "Poor"
	}
}
