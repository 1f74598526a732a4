package prediction

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// Random-forest hyperparameters. The ensemble is deliberately small and
// shallow; twelve features and a few thousand samples do not need more.
const (
	forestSize       = 100
	maxTreeDepth     = 10
	minSplitSize     = 4
	featuresPerSplit = 3 // floor(sqrt(NumFeatures))
)

// Node is one decision-tree node. Leaves have nil children and carry the
// positive-class fraction of the training samples that reached them. All
// fields are exported for gob.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Prob      float64
}

func (n *Node) isLeaf() bool { return n.Left == nil }

// Forest is a bagged ensemble of probability trees over fixed-width feature
// vectors. Prediction averages the per-tree leaf probabilities. A fitted
// forest is immutable and safe for concurrent use.
type Forest struct {
	Trees []*Node

	// RawImportance accumulates impurity decrease per feature across all
	// splits. Normalize with Importance.
	RawImportance [riskcase.NumFeatures]float64
}

// fitForest trains a forest on the given samples. Each tree sees a bootstrap
// resample and considers a random feature subset at every split. All
// randomness comes from rng, so a fixed seed reproduces the same forest.
func fitForest(samples []riskcase.FeatureVector, labels []int, rng *rand.Rand) *Forest {
	f := &Forest{Trees: make([]*Node, 0, forestSize)}
	idx := make([]int, len(samples))
	for t := 0; t < forestSize; t++ {
		for i := range idx {
			idx[i] = rng.Intn(len(samples))
		}
		f.Trees = append(f.Trees, f.buildNode(samples, labels, idx, 0, rng))
	}
	return f
}

func (f *Forest) buildNode(samples []riskcase.FeatureVector, labels []int, idx []int, depth int, rng *rand.Rand) *Node {
	pos := 0
	for _, i := range idx {
		pos += labels[i]
	}
	prob := float64(pos) / float64(len(idx))

	if depth >= maxTreeDepth || len(idx) < minSplitSize || pos == 0 || pos == len(idx) {
		return &Node{Prob: prob}
	}

	feature, threshold, gain := f.bestSplit(samples, labels, idx, rng)
	if gain <= 0 {
		return &Node{Prob: prob}
	}
	f.RawImportance[feature] += gain * float64(len(idx))

	var left, right []int
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Prob:      prob,
		Left:      f.buildNode(samples, labels, left, depth+1, rng),
		Right:     f.buildNode(samples, labels, right, depth+1, rng),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest Gini impurity decrease. Returns gain 0 when no split separates the
// samples.
func (f *Forest) bestSplit(samples []riskcase.FeatureVector, labels []int, idx []int, rng *rand.Rand) (int, float64, float64) {
	parentGini := giniOf(labels, idx)
	total := float64(len(idx))

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	for _, feature := range rng.Perm(riskcase.NumFeatures)[:featuresPerSplit] {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, samples[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			var nl, posL, posR int
			for _, i := range idx {
				if samples[i][feature] <= threshold {
					nl++
					posL += labels[i]
				} else {
					posR += labels[i]
				}
			}
			nr := len(idx) - nl
			if nl == 0 || nr == 0 {
				continue
			}

			gain := parentGini -
				float64(nl)/total*gini(posL, nl) -
				float64(nr)/total*gini(posR, nr)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = feature, threshold, gain
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

func giniOf(labels []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += labels[i]
	}
	return gini(pos, len(idx))
}

func gini(pos, n int) float64 {
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// PredictProba returns the ensemble-average probability of the positive
// class for one feature vector.
func (f *Forest) PredictProba(v riskcase.FeatureVector) float64 {
	sum := 0.0
	for _, root := range f.Trees {
		n := root
		for !n.isLeaf() {
			if v[n.Feature] <= n.Threshold {
				n = n.Left
			} else {
				n = n.Right
			}
		}
		sum += n.Prob
	}
	return sum / float64(len(f.Trees))
}

// Importance returns per-feature importance normalized to sum to 1. A forest
// that never split (degenerate data) reports uniform importance.
func (f *Forest) Importance() map[string]float64 {
	total := 0.0
	for _, v := range f.RawImportance {
		total += v
	}

	out := make(map[string]float64, riskcase.NumFeatures)
	if total == 0 || math.IsNaN(total) {
		for _, name := range riskcase.FeatureNames {
			out[name] = 1.0 / riskcase.NumFeatures
		}
		return out
	}
	for i, name := range riskcase.FeatureNames {
		out[name] = f.RawImportance[i] / total
	}
	return out
}
