package predict

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/store"
)

func user(content string) convo.Message {
	return convo.Message{Role: convo.RoleUser, Content: content}
}

func assistant(content string) convo.Message {
	return convo.Message{Role: convo.RoleAssistant, Content: content}
}

func newObjectionPredictor(t *testing.T) (*ObjectionPredictor, *fakeDB) {
	t.Helper()
	db := newFakeDB()
	svc := NewService("objection_model", "objection", db, nil, nil, slog.Default())
	return NewObjectionPredictor(svc, rules.Default().Objection, nlp.NewLexiconAnalyzer(), slog.Default()), db
}

func TestObjectionStoreResult(t *testing.T) {
	p, db := newObjectionPredictor(t)

	r := EmptyObjectionResult()
	r.Source = SourceML
	r.Objections = []ScoredCategory{{Category: "trust", Score: 0.9}}
	r.Confidence = 0.9

	p.StoreResult(context.Background(), "conv-ml", r)

	if len(db.predictions) != 1 {
		t.Fatalf("stored %d predictions, want 1", len(db.predictions))
	}
	row := db.predictions[0]
	if row.ConversationID != "conv-ml" || row.PredictionType != "objection" || row.Confidence != 0.9 {
		t.Errorf("row = %s/%s conf %f, want conv-ml/objection conf 0.9", row.ConversationID, row.PredictionType, row.Confidence)
	}
	if row.Status != store.StatusPending {
		t.Errorf("status = %s, want pending for outcome recording", row.Status)
	}
}

func TestObjectionPredict_PriceObjectionSurfaces(t *testing.T) {
	p, db := newObjectionPredictor(t)

	msgs := []convo.Message{
		user("Hola, tengo un gimnasio y pierdo clientes"),
		assistant("Te entiendo, nuestra plataforma predice el abandono de clientes"),
		user("Suena bien pero $2,700 al mes es mucho"),
	}

	got := p.Predict(context.Background(), "conv-gym", msgs, nil)

	if len(got.Objections) == 0 {
		t.Fatal("expected at least one objection")
	}
	if got.Objections[0].Category != "price" {
		t.Errorf("top objection = %q, want price", got.Objections[0].Category)
	}
	if got.Confidence < 0.5 {
		t.Errorf("confidence = %f, want >= 0.5", got.Confidence)
	}
	if len(got.Objections[0].Responses) == 0 {
		t.Error("price objection carries no suggested responses")
	}
	if len(db.predictions) != 1 {
		t.Errorf("stored predictions = %d, want 1", len(db.predictions))
	}
	if db.predictions[0].Status != "pending" {
		t.Errorf("stored prediction status = %s, want pending", db.predictions[0].Status)
	}
}

func TestObjectionPredict_EmptyConversation(t *testing.T) {
	p, db := newObjectionPredictor(t)

	got := p.Predict(context.Background(), "conv-empty", nil, nil)

	if len(got.Objections) != 0 {
		t.Errorf("objections = %v, want empty", got.Objections)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", got.Confidence)
	}
	if got.Signals == nil {
		t.Error("signals map must be non-nil even when empty")
	}
	if len(db.predictions) != 0 {
		t.Error("empty input must not store a prediction")
	}
}

func TestObjectionPredict_NoObjectionBelowThreshold(t *testing.T) {
	p, _ := newObjectionPredictor(t)

	msgs := []convo.Message{
		user("Hola, quiero saber más de la plataforma"),
	}

	got := p.Predict(context.Background(), "conv-neutral", msgs, nil)

	for _, o := range got.Objections {
		if o.Score < 0.65 {
			t.Errorf("objection %q below threshold with score %f", o.Category, o.Score)
		}
	}
}

func TestObjectionPredict_ScoresWithinBounds(t *testing.T) {
	p, _ := newObjectionPredictor(t)

	msgs := []convo.Message{
		user("Es caro, muy caro, el precio es alto y el costo me preocupa, mucho presupuesto"),
		user("No estoy seguro, quizás más adelante, tal vez luego"),
	}

	got := p.Predict(context.Background(), "conv-loaded", msgs, nil)

	if got.Confidence < 0 || got.Confidence > 1 {
		t.Errorf("confidence %f outside [0,1]", got.Confidence)
	}
	for _, o := range got.Objections {
		if o.Score < 0 || o.Score > 1 {
			t.Errorf("objection %q score %f outside [0,1]", o.Category, o.Score)
		}
	}
}

func TestObjectionPredict_ProfileAdjustment(t *testing.T) {
	p, _ := newObjectionPredictor(t)

	msgs := []convo.Message{
		user("El precio me parece caro"),
	}
	profile := &convo.CustomerProfile{Segment: "price_sensitive"}

	plain := p.Predict(context.Background(), "conv-a", msgs, nil)
	adjusted := p.Predict(context.Background(), "conv-b", msgs, profile)

	scoreOf := func(r ObjectionResult, cat string) float64 {
		for _, o := range r.Objections {
			if o.Category == cat {
				return o.Score
			}
		}
		return 0
	}
	if scoreOf(adjusted, "price") < scoreOf(plain, "price") {
		t.Errorf("price_sensitive profile lowered price score: %f < %f",
			scoreOf(adjusted, "price"), scoreOf(plain, "price"))
	}
}
