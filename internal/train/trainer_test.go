package train

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/store"
)

type fakeTrainStore struct {
	samples  map[string][]store.TrainingSample
	marked   []uuid.UUID
	accuracy map[string]float64
}

func newFakeTrainStore() *fakeTrainStore {
	return &fakeTrainStore{
		samples:  map[string][]store.TrainingSample{},
		accuracy: map[string]float64{},
	}
}

func (f *fakeTrainStore) TrainingSamples(_ context.Context, modelName string, _ bool, _ int) ([]store.TrainingSample, error) {
	return f.samples[modelName], nil
}

func (f *fakeTrainStore) MarkSamplesUsed(_ context.Context, ids []uuid.UUID) error {
	f.marked = append(f.marked, ids...)
	return nil
}

func (f *fakeTrainStore) UpdateModelAccuracy(_ context.Context, name string, accuracy float64, _ int) error {
	f.accuracy[name] = accuracy
	return nil
}

func userMsg(content string) convo.Message {
	return convo.Message{Role: convo.RoleUser, Content: content}
}

func TestTrain_ObjectionPicksACandidate(t *testing.T) {
	gen := NewGenerator(rules.Default(), 42)
	tr := NewTrainer(newFakeTrainStore(), rules.Default(), t.TempDir(), slog.Default())

	b, err := tr.train(domainObjection, gen.Objections(perCategory), 7)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	switch b.Kind {
	case KindRandomForest, KindGradientBoosting, KindLogisticRegression:
	default:
		t.Errorf("unexpected winning kind %q", b.Kind)
	}
	if b.Metrics.Accuracy < 0 || b.Metrics.Accuracy > 1 {
		t.Errorf("accuracy %f outside [0,1]", b.Metrics.Accuracy)
	}
	if b.Metrics.TestSamples == 0 {
		t.Error("no held-out samples evaluated")
	}
	if b.Vectorizer == nil || b.Vectorizer.NumFeatures() == 0 {
		t.Error("bundle carries no fitted vectorizer")
	}
}

func TestTrain_InsufficientSamples(t *testing.T) {
	tr := NewTrainer(newFakeTrainStore(), rules.Default(), t.TempDir(), slog.Default())

	_, err := tr.train(domainObjection, []Sample{{Text: "caro", Label: "price"}}, 1)
	if err == nil {
		t.Fatal("expected error on tiny corpus")
	}
}

func TestTrainAll_EndToEnd(t *testing.T) {
	db := newFakeTrainStore()
	liveID := uuid.New()
	db.samples["objection_model"] = []store.TrainingSample{
		{
			ID:        liveID,
			ModelName: "objection_model",
			DataType:  "live",
			Features:  json.RawMessage(`{"text":"me parece muy caro el servicio"}`),
			Label:     "price",
		},
		{
			ID:       uuid.New(),
			Features: json.RawMessage(`{"broken":`),
			Label:    "price",
		},
	}

	dir := t.TempDir()
	tr := NewTrainer(db, rules.Default(), dir, slog.Default())

	if err := tr.TrainAll(context.Background()); err != nil {
		t.Fatalf("TrainAll: %v", err)
	}
	if !tr.Ready() {
		t.Fatal("trainer not ready after TrainAll")
	}

	found := false
	for _, id := range db.marked {
		if id == liveID {
			found = true
		}
	}
	if !found {
		t.Error("live sample not marked as used")
	}
	for _, name := range modelNames {
		if _, ok := db.accuracy[name]; !ok {
			t.Errorf("accuracy not recorded for %s", name)
		}
	}

	got, err := tr.PredictObjections(context.Background(), []convo.Message{
		userMsg("La verdad el precio es muy caro y es mucho presupuesto"),
	})
	if err != nil {
		t.Fatalf("PredictObjections: %v", err)
	}
	if len(got.Objections) == 0 {
		t.Fatal("expected at least one objection class")
	}
	if got.Objections[0].Category != "price" {
		t.Errorf("top class = %q, want price", got.Objections[0].Category)
	}
	if got.Source != "ml" {
		t.Errorf("source = %q, want ml", got.Source)
	}
}

func TestLoadModels_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	first := NewTrainer(newFakeTrainStore(), rules.Default(), dir, slog.Default())
	if err := first.TrainAll(context.Background()); err != nil {
		t.Fatalf("TrainAll: %v", err)
	}

	second := NewTrainer(newFakeTrainStore(), rules.Default(), dir, slog.Default())
	if err := second.LoadModels(); err != nil {
		t.Fatalf("LoadModels: %v", err)
	}
	if !second.Ready() {
		t.Fatal("models not ready after load")
	}

	got, err := second.PredictConversion(context.Background(), []convo.Message{
		userMsg("Me interesa, quiero comprar y empezar ya"),
	})
	if err != nil {
		t.Fatalf("PredictConversion: %v", err)
	}
	if got.Probability < 0 || got.Probability > 1 {
		t.Errorf("probability %f outside [0,1]", got.Probability)
	}
	switch got.Category {
	case "low", "medium", "high":
	default:
		t.Errorf("unexpected level %q", got.Category)
	}
}

func TestPredict_NotTrained(t *testing.T) {
	tr := NewTrainer(newFakeTrainStore(), rules.Default(), t.TempDir(), slog.Default())

	_, err := tr.PredictObjections(context.Background(), []convo.Message{userMsg("hola")})
	if !errors.Is(err, ErrNotTrained) {
		t.Errorf("err = %v, want ErrNotTrained", err)
	}
	if _, err := tr.PredictNeeds(context.Background(), nil, nil); !errors.Is(err, ErrNotTrained) {
		t.Errorf("needs err = %v, want ErrNotTrained", err)
	}
	if _, err := tr.PredictConversion(context.Background(), nil); !errors.Is(err, ErrNotTrained) {
		t.Errorf("conversion err = %v, want ErrNotTrained", err)
	}
}
