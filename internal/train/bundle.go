package train

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Classifier kinds persisted in a bundle.
const (
	KindRandomForest       = "random_forest"
	KindGradientBoosting   = "gradient_boosting"
	KindLogisticRegression = "logistic_regression"
	KindLinearSVM          = "linear_svm"
)

// Metrics summarizes one training run, with precision/recall/F1 weighted by
// class support.
type Metrics struct {
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Bundle is one domain's serialized model: the fitted vectorizer, the
// winning classifier, and training metadata, stored as a single JSON file.
// Exactly one classifier field is non-nil, selected by Kind.
type Bundle struct {
	Domain     string    `json:"domain"`
	Kind       string    `json:"kind"`
	TrainedAt  time.Time `json:"trained_at"`
	Metrics    Metrics   `json:"metrics"`
	Vectorizer *TFIDF    `json:"vectorizer"`

	Forest   *RandomForest       `json:"forest,omitempty"`
	Boosting *GradientBoosting   `json:"boosting,omitempty"`
	LogReg   *LogisticRegression `json:"logreg,omitempty"`
	SVM      *LinearSVM          `json:"svm,omitempty"`
}

// Classes returns the label vocabulary of the wrapped classifier.
func (b *Bundle) Classes() []string {
	switch b.Kind {
	case KindRandomForest:
		return b.Forest.Classes
	case KindGradientBoosting:
		return b.Boosting.Classes
	case KindLogisticRegression:
		return b.LogReg.Classes
	case KindLinearSVM:
		return b.SVM.Classes
	}
	return nil
}

// PredictProba dispatches to the wrapped classifier.
func (b *Bundle) PredictProba(x []float64) ([]float64, error) {
	switch b.Kind {
	case KindRandomForest:
		return b.Forest.PredictProba(x), nil
	case KindGradientBoosting:
		return b.Boosting.PredictProba(x), nil
	case KindLogisticRegression:
		return b.LogReg.PredictProba(x), nil
	case KindLinearSVM:
		return b.SVM.PredictProba(x), nil
	}
	return nil, fmt.Errorf("unknown classifier kind %q", b.Kind)
}

// Save writes the bundle to <dir>/<domain>.json.
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal %s bundle: %w", b.Domain, err)
	}
	path := filepath.Join(dir, b.Domain+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s bundle: %w", b.Domain, err)
	}
	return nil
}

// LoadBundle reads a bundle back from disk.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	if _, err := b.PredictProba(make([]float64, b.Vectorizer.NumFeatures()+numTextFeatures)); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}
	return &b, nil
}

// evaluate computes accuracy and support-weighted precision/recall/F1 over
// predicted and true label indices.
func evaluate(pred, truth []int, nClasses int) Metrics {
	var m Metrics
	m.TestSamples = len(truth)
	if len(truth) == 0 {
		return m
	}

	correct := 0
	tp := make([]float64, nClasses)
	fp := make([]float64, nClasses)
	fn := make([]float64, nClasses)
	support := make([]float64, nClasses)
	for i, t := range truth {
		support[t]++
		if pred[i] == t {
			correct++
			tp[t]++
		} else {
			fp[pred[i]]++
			fn[t]++
		}
	}
	m.Accuracy = float64(correct) / float64(len(truth))

	for k := 0; k < nClasses; k++ {
		var precision, recall float64
		if tp[k]+fp[k] > 0 {
			precision = tp[k] / (tp[k] + fp[k])
		}
		if tp[k]+fn[k] > 0 {
			recall = tp[k] / (tp[k] + fn[k])
		}
		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		weight := support[k] / float64(len(truth))
		m.Precision += weight * precision
		m.Recall += weight * recall
		m.F1 += weight * f1
	}
	return m
}
