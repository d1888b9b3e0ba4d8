// Package train fits the per-domain classifiers on synthetic plus live
// training data, persists the winning model per domain as a JSON bundle,
// and serves predictions from the loaded bundles.
package train

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/signals"
	"github.com/ngx-platform/foresight/internal/store"
)

const (
	domainObjection  = "objection"
	domainNeeds      = "needs"
	domainConversion = "conversion"

	minSamples      = 20
	perCategory     = 12
	maxTextFeatures = 150

	// confidenceCutoff filters the ranked class list returned by the
	// predict methods; the top class is always reported via Confidence.
	confidenceCutoff = 0.3
)

// numTextFeatures is the length of the hand-engineered block appended to
// every tf-idf vector. Training and inference must agree on it.
const numTextFeatures = 4

// ErrNotTrained is returned by the predict methods until a bundle for the
// domain has been trained or loaded.
var ErrNotTrained = errors.New("model not trained")

var modelNames = map[string]string{
	domainObjection:  "objection_model",
	domainNeeds:      "needs_model",
	domainConversion: "conversion_model",
}

// TrainingStore is the persistence surface the trainer needs.
type TrainingStore interface {
	TrainingSamples(ctx context.Context, modelName string, onlyUnused bool, limit int) ([]store.TrainingSample, error)
	MarkSamplesUsed(ctx context.Context, ids []uuid.UUID) error
	UpdateModelAccuracy(ctx context.Context, name string, accuracy float64, trainingSamples int) error
}

type probaModel interface {
	PredictProba(x []float64) []float64
}

// Trainer owns the per-domain model bundles.
type Trainer struct {
	db     TrainingStore
	rules  *rules.Set
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	bundles map[string]*Bundle
}

func NewTrainer(db TrainingStore, r *rules.Set, modelDir string, logger *slog.Logger) *Trainer {
	return &Trainer{db: db, rules: r, dir: modelDir, logger: logger, bundles: map[string]*Bundle{}}
}

// Ready reports whether every domain has a usable model.
func (t *Trainer) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bundles) == len(modelNames)
}

func (t *Trainer) bundle(domain string) *Bundle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bundles[domain]
}

// LoadModels reads previously trained bundles from the model directory.
// A missing file is not an error: that domain keeps returning ErrNotTrained
// until the next training run.
func (t *Trainer) LoadModels() error {
	for domain := range modelNames {
		b, err := LoadBundle(filepath.Join(t.dir, domain+".json"))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		t.mu.Lock()
		t.bundles[domain] = b
		t.mu.Unlock()
		t.logger.Info("model loaded",
			"domain", domain, "kind", b.Kind, "accuracy", b.Metrics.Accuracy)
	}
	return nil
}

// TrainAll retrains every domain on synthetic plus stored live samples,
// persists the bundles, and records accuracy against the model registry.
// Domains fail independently.
func (t *Trainer) TrainAll(ctx context.Context) error {
	seed := time.Now().UnixNano()
	var errs []error
	for _, domain := range []string{domainObjection, domainNeeds, domainConversion} {
		samples, usedIDs := t.collect(ctx, domain, seed)
		b, err := t.train(domain, samples, seed)
		if err != nil {
			errs = append(errs, fmt.Errorf("train %s: %w", domain, err))
			continue
		}
		if err := b.Save(t.dir); err != nil {
			errs = append(errs, err)
			continue
		}

		t.mu.Lock()
		t.bundles[domain] = b
		t.mu.Unlock()

		if err := t.db.UpdateModelAccuracy(ctx, modelNames[domain], b.Metrics.Accuracy, len(samples)); err != nil {
			t.logger.Warn("record accuracy failed", "domain", domain, "error", err)
		}
		if err := t.db.MarkSamplesUsed(ctx, usedIDs); err != nil {
			t.logger.Warn("mark samples used failed", "domain", domain, "error", err)
		}
		t.logger.Info("model trained",
			"domain", domain, "kind", b.Kind,
			"accuracy", b.Metrics.Accuracy, "f1", b.Metrics.F1,
			"samples", len(samples))
	}
	return errors.Join(errs...)
}

// collect merges freshly generated synthetic samples with the live samples
// accumulated from recorded outcomes. Live rows that cannot be parsed are
// skipped.
func (t *Trainer) collect(ctx context.Context, domain string, seed int64) ([]Sample, []uuid.UUID) {
	gen := NewGenerator(t.rules, seed)
	var samples []Sample
	switch domain {
	case domainObjection:
		samples = gen.Objections(perCategory)
	case domainNeeds:
		samples = gen.Needs(perCategory)
	case domainConversion:
		samples = gen.Conversions(3 * perCategory)
	}

	live, err := t.db.TrainingSamples(ctx, modelNames[domain], false, 0)
	if err != nil {
		t.logger.Warn("load live samples failed", "domain", domain, "error", err)
		return samples, nil
	}

	var usedIDs []uuid.UUID
	for _, row := range live {
		var payload struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(row.Features, &payload) != nil || payload.Text == "" || row.Label == "" {
			continue
		}
		samples = append(samples, Sample{Text: payload.Text, Label: row.Label})
		if !row.UsedInTraining {
			usedIDs = append(usedIDs, row.ID)
		}
	}
	return samples, usedIDs
}

// train fits the domain's candidate classifiers on an 80/20 stratified
// split and keeps the one with the best held-out accuracy.
func (t *Trainer) train(domain string, samples []Sample, seed int64) (*Bundle, error) {
	if len(samples) < minSamples {
		return nil, fmt.Errorf("%d samples, need at least %d", len(samples), minSamples)
	}

	classes := labelVocabulary(samples)
	if len(classes) < 2 {
		return nil, fmt.Errorf("%d distinct labels, need at least 2", len(classes))
	}
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	texts := make([]string, len(samples))
	for i, s := range samples {
		texts[i] = s.Text
	}
	vec := NewTFIDF(maxTextFeatures)
	vec.Fit(texts)

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		X[i] = featureVector(vec, s.Text)
		y[i] = classIndex[s.Label]
	}

	trainX, trainY, testX, testY := stratifiedSplit(X, y, len(classes), 0.2, seed)

	var kinds []string
	switch domain {
	case domainObjection:
		kinds = []string{KindRandomForest, KindGradientBoosting, KindLogisticRegression}
	case domainNeeds:
		kinds = []string{KindLinearSVM}
	case domainConversion:
		kinds = []string{KindGradientBoosting}
	}

	best := &Bundle{Domain: domain, TrainedAt: time.Now().UTC(), Vectorizer: vec}
	bestAccuracy := -1.0
	for _, kind := range kinds {
		model := fitKind(kind, trainX, trainY, classes, seed)
		metrics := evaluate(predictAll(model, testX), testY, len(classes))
		metrics.TrainSamples = len(trainX)
		if metrics.Accuracy > bestAccuracy {
			bestAccuracy = metrics.Accuracy
			best.Kind = kind
			best.Metrics = metrics
			best.Forest, best.Boosting, best.LogReg, best.SVM = nil, nil, nil, nil
			switch m := model.(type) {
			case *RandomForest:
				best.Forest = m
			case *GradientBoosting:
				best.Boosting = m
			case *LogisticRegression:
				best.LogReg = m
			case *LinearSVM:
				best.SVM = m
			}
		}
	}
	return best, nil
}

func fitKind(kind string, X [][]float64, y []int, classes []string, seed int64) probaModel {
	switch kind {
	case KindRandomForest:
		m := NewRandomForest()
		m.Fit(X, y, classes, seed)
		return m
	case KindGradientBoosting:
		m := NewGradientBoosting()
		m.Fit(X, y, classes, seed)
		return m
	case KindLinearSVM:
		m := NewLinearSVM()
		m.Fit(X, y, classes, seed)
		return m
	default:
		m := NewLogisticRegression()
		m.Fit(X, y, classes, seed)
		return m
	}
}

func predictAll(model probaModel, X [][]float64) []int {
	pred := make([]int, len(X))
	for i, x := range X {
		pred[i] = argmax(model.PredictProba(x))
	}
	return pred
}

func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}

func labelVocabulary(samples []Sample) []string {
	seen := map[string]bool{}
	var classes []string
	for _, s := range samples {
		if !seen[s.Label] {
			seen[s.Label] = true
			classes = append(classes, s.Label)
		}
	}
	sort.Strings(classes)
	return classes
}

// stratifiedSplit holds out testFrac of each class, at least one sample per
// class when possible.
func stratifiedSplit(X [][]float64, y []int, nClasses int, testFrac float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := make([][]int, nClasses)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx)) * testFrac)
		if nTest == 0 && len(idx) > 1 {
			nTest = 1
		}
		for j, i := range idx {
			if j < nTest {
				testX = append(testX, X[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
	}
	return trainX, trainY, testX, testY
}

// featureVector concatenates the tf-idf vector with the hand-engineered
// numeric block. Must stay identical between training and inference.
func featureVector(vec *TFIDF, text string) []float64 {
	return append(vec.Transform(text), textFeatures(text)...)
}

var (
	priceMarkers      = []string{"precio", "caro", "costo", "$", "presupuesto"}
	comparisonMarkers = []string{"comparar", "versus", "vs", "alternativa", "competencia"}
)

func textFeatures(text string) []float64 {
	out := make([]float64, numTextFeatures)
	out[0] = math.Min(float64(len(strings.Fields(text)))/50, 1)
	out[1] = float64(strings.Count(text, "?"))
	for _, kw := range priceMarkers {
		if signals.CountOccurrences(text, kw) > 0 {
			out[2] = 1
			break
		}
	}
	for _, kw := range comparisonMarkers {
		if signals.CountOccurrences(text, kw) > 0 {
			out[3] = 1
			break
		}
	}
	return out
}
