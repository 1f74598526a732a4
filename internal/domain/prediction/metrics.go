package prediction

import "sort"

// Metrics is the held-out evaluation of one training run. Rates are in
// [0, 1]; a division with an empty denominator reports 0 rather than NaN.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	ROCAUC    float64 `json:"roc_auc"`

	TrainingSamples int `json:"training_samples"`
	TestSamples     int `json:"test_samples"`
}

// evaluate scores predicted probabilities against true labels at a 0.5
// decision threshold.
func evaluate(probs []float64, labels []int) Metrics {
	var tp, tn, fp, fn int
	for i, p := range probs {
		predicted := 0
		if p >= 0.5 {
			predicted = 1
		}
		switch {
		case predicted == 1 && labels[i] == 1:
			tp++
		case predicted == 0 && labels[i] == 0:
			tn++
		case predicted == 1 && labels[i] == 0:
			fp++
		default:
			fn++
		}
	}

	m := Metrics{TestSamples: len(labels)}
	if len(labels) > 0 {
		m.Accuracy = float64(tp+tn) / float64(len(labels))
	}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	m.ROCAUC = rocAUC(probs, labels)
	return m
}

// rocAUC computes the area under the ROC curve by the rank-sum method, with
// midranks for tied probabilities. Returns 0.5 when either class is absent,
// the no-information value.
func rocAUC(probs []float64, labels []int) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probs[order[j]] == probs[order[i]] {
			j++
		}
		// 1-based midrank for the tie group [i, j).
		mid := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = mid
		}
		i = j
	}

	var pos, neg int
	var posRankSum float64
	for i, y := range labels {
		if y == 1 {
			pos++
			posRankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	return (posRankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
}
