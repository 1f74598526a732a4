package prediction

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// State of the predictor's model slot.
type State string

const (
	StateNoModel     State = "no_model"
	StateModelLoaded State = "model_loaded"
)

// Training parameters.
const (
	testFraction      = 0.2
	splitSeed         = 42
	forestSeed        = 42
	minTrainingCases  = 10
	validationSamples = 5
)

// Predictor serves adverse-event risk predictions. It holds at most one
// trained model; while none is loaded it falls back to rule-based scoring.
// Once a model is loaded the slot never empties again, it is only replaced.
//
// Predictions are lock-free reads of an atomic artifact pointer, so they run
// concurrently with each other and with a training swap. Training serializes
// on its own mutex but never holds it while a prediction is in flight.
type Predictor struct {
	path   string
	logger zerolog.Logger

	model    atomic.Pointer[Artifact]
	loadOnce sync.Once
	trainMu  sync.Mutex
}

// NewPredictor returns a predictor that persists and lazily loads its model
// artifact at path.
func NewPredictor(path string, logger zerolog.Logger) *Predictor {
	return &Predictor{path: path, logger: logger}
}

// State reports whether a model is currently loaded.
func (p *Predictor) State() State {
	if p.model.Load() != nil {
		return StateModelLoaded
	}
	return StateNoModel
}

// Current returns the loaded artifact, or nil in fallback mode. The artifact
// is immutable once published.
func (p *Predictor) Current() *Artifact {
	p.ensureLoaded()
	return p.model.Load()
}

// Predict scores one case. It never fails: with no model loaded it produces
// a rule-based result instead.
func (p *Predictor) Predict(c riskcase.CaseRecord) Result {
	p.ensureLoaded()
	return p.strategy().Predict(c)
}

func (p *Predictor) strategy() Strategy {
	if a := p.model.Load(); a != nil {
		return LearnedModelStrategy{artifact: a}
	}
	return RuleBasedStrategy{}
}

// ensureLoaded attempts the artifact read exactly once per process. A missing
// or unreadable artifact is not an error, it just leaves fallback mode
// active.
func (p *Predictor) ensureLoaded() {
	p.loadOnce.Do(func() {
		if p.model.Load() != nil {
			return
		}
		a, err := LoadArtifact(p.path)
		if err != nil {
			p.logger.Warn().Err(err).Str("path", p.path).
				Msg("no model artifact loaded, predictions fall back to rule-based scoring")
			return
		}
		p.model.Store(a)
		p.logger.Info().Str("version", a.Version).Str("path", p.path).
			Msg("model artifact loaded")
	})
}

// Train fits a fresh model on the given cases, evaluates it on a stratified
// held-out partition, swaps it in for serving, and persists it.
//
// On a *PersistenceError the returned artifact is still non-nil and already
// serving: the model works for this process lifetime but will not survive a
// restart, and the caller must warn the operator. Any other error leaves the
// previous model untouched.
func (p *Predictor) Train(cases []riskcase.CaseRecord) (*Artifact, error) {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()
	p.ensureLoaded()

	for i := 0; i < len(cases) && i < validationSamples; i++ {
		if err := cases[i].Validate(); err != nil {
			return nil, &DataValidationError{Index: i, Err: err}
		}
	}

	samples := make([]riskcase.FeatureVector, len(cases))
	labels := make([]int, len(cases))
	pos := 0
	for i, c := range cases {
		// The label gates split bucketing and class counts, so a value
		// outside {0, 1} anywhere in the corpus aborts training, not
		// just in the sampled validation window.
		if c.AdverseEventOccurred != 0 && c.AdverseEventOccurred != 1 {
			return nil, &DataValidationError{Index: i,
				Err: fmt.Errorf("adverse_event_occurred must be 0 or 1, got %d", c.AdverseEventOccurred)}
		}
		samples[i] = riskcase.Derive(c)
		labels[i] = c.AdverseEventOccurred
		pos += c.AdverseEventOccurred
	}
	neg := len(cases) - pos

	if len(cases) < minTrainingCases {
		return nil, &TrainingError{
			Reason:  fmt.Sprintf("need at least %d cases", minTrainingCases),
			Samples: len(cases), PositiveCount: pos, NegativeCount: neg,
		}
	}
	if pos == 0 || neg == 0 {
		return nil, &TrainingError{
			Reason:  "label column has a single class",
			Samples: len(cases), PositiveCount: pos, NegativeCount: neg,
		}
	}

	trainIdx, testIdx := stratifiedSplit(labels, testFraction, splitSeed)

	start := time.Now()
	p.logger.Info().Int("train", len(trainIdx)).Int("test", len(testIdx)).
		Msg("fitting model")

	trainSamples := make([]riskcase.FeatureVector, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for i, j := range trainIdx {
		trainSamples[i] = samples[j]
		trainLabels[i] = labels[j]
	}
	forest := fitForest(trainSamples, trainLabels, rand.New(rand.NewSource(forestSeed)))

	testProbs := make([]float64, len(testIdx))
	testLabels := make([]int, len(testIdx))
	for i, j := range testIdx {
		testProbs[i] = forest.PredictProba(samples[j])
		testLabels[i] = labels[j]
	}
	metrics := evaluate(testProbs, testLabels)
	metrics.TrainingSamples = len(trainIdx)

	seq := 1
	if prev := p.model.Load(); prev != nil {
		seq = prev.VersionSeq + 1
	}
	artifact := &Artifact{
		Version:           fmt.Sprintf("v%d", seq),
		VersionSeq:        seq,
		Forest:            forest,
		FeatureImportance: forest.Importance(),
		Metrics:           metrics,
		TrainedAt:         time.Now().UTC(),
	}

	// Swap before persisting: the fit succeeded, so this process serves the
	// new model even if the artifact cannot be written.
	p.model.Store(artifact)
	p.logger.Info().Str("version", artifact.Version).
		Dur("elapsed", time.Since(start)).
		Float64("accuracy", metrics.Accuracy).
		Float64("roc_auc", metrics.ROCAUC).
		Msg("model trained and serving")

	if err := SaveArtifact(p.path, artifact); err != nil {
		p.logger.Error().Err(err).Str("path", p.path).
			Msg("model swap succeeded but artifact write failed, model is not durable")
		return artifact, err
	}
	return artifact, nil
}

// stratifiedSplit partitions sample indices into train and test sets,
// preserving the class ratio in both. The shuffle is seeded so a given corpus
// always splits the same way.
func stratifiedSplit(labels []int, testFrac float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	var byClass [2][]int
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}

	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(float64(len(idx)) * testFrac)
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	return train, test
}
