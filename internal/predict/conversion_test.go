package predict

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/rules"
)

func newConversionPredictor(t *testing.T) (*ConversionPredictor, *fakeDB) {
	t.Helper()
	db := newFakeDB()
	svc := NewService("conversion_model", "conversion", db, nil, nil, slog.Default())
	return NewConversionPredictor(svc, rules.Default().Conversion, nlp.NewLexiconAnalyzer(), slog.Default()), db
}

func TestConversionPredict_EmptyConversation(t *testing.T) {
	p, db := newConversionPredictor(t)

	got := p.Predict(context.Background(), "conv-empty", nil, nil)

	if got.Probability != 0 {
		t.Errorf("probability = %f, want 0", got.Probability)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", got.Confidence)
	}
	if got.Category != ConversionLow {
		t.Errorf("category = %q, want low", got.Category)
	}
	if got.Signals == nil || got.Recommendations == nil {
		t.Error("signals and recommendations must be non-nil")
	}
	if len(db.predictions) != 0 {
		t.Error("empty input must not store a prediction")
	}
}

func TestConversionEvaluate_DoesNotStore(t *testing.T) {
	p, db := newConversionPredictor(t)
	msgs := []convo.Message{{Role: convo.RoleUser, Content: "¿cuánto cuesta el plan?"}}

	evaluated := p.Evaluate(context.Background(), msgs, nil)
	if len(db.predictions) != 0 {
		t.Fatalf("Evaluate stored %d predictions, want 0", len(db.predictions))
	}

	predicted := p.Predict(context.Background(), "conv-store", msgs, nil)
	if len(db.predictions) != 1 {
		t.Fatalf("Predict stored %d predictions, want 1", len(db.predictions))
	}
	if predicted.Probability != evaluated.Probability {
		t.Errorf("Predict probability %f diverges from Evaluate %f", predicted.Probability, evaluated.Probability)
	}
}

func TestConversionStoreResult(t *testing.T) {
	p, db := newConversionPredictor(t)

	r := EmptyConversionResult()
	r.Probability = 0.71
	r.Confidence = 0.54
	r.Category = ConversionMedium
	r.Source = SourceML

	p.StoreResult(context.Background(), "conv-blend", r)

	if len(db.predictions) != 1 {
		t.Fatalf("stored %d predictions, want 1", len(db.predictions))
	}
	row := db.predictions[0]
	if row.ConversationID != "conv-blend" || row.PredictionType != "conversion" {
		t.Errorf("row = %s/%s, want conv-blend/conversion", row.ConversationID, row.PredictionType)
	}
	if row.Confidence != 0.54 {
		t.Errorf("stored confidence = %f, want the result's 0.54", row.Confidence)
	}
}

func TestConversionCategorize_Thresholds(t *testing.T) {
	p, _ := newConversionPredictor(t)

	tests := []struct {
		probability float64
		want        string
	}{
		{0.85, ConversionHigh},
		{0.8, ConversionHigh},
		{0.5, ConversionMedium},
		{0.3, ConversionMedium},
		{0.1, ConversionLow},
		{0.0, ConversionLow},
	}

	for _, tt := range tests {
		if got := p.Categorize(tt.probability); got != tt.want {
			t.Errorf("Categorize(%f) = %q, want %q", tt.probability, got, tt.want)
		}
	}
}

func TestConversionPredict_BuyingIntentRaisesProbability(t *testing.T) {
	p, _ := newConversionPredictor(t)
	ctx := context.Background()

	cold := p.Predict(ctx, "conv-cold", []convo.Message{
		user("Hola"),
	}, nil)
	hot := p.Predict(ctx, "conv-hot", []convo.Message{
		user("Me interesa mucho, es excelente"),
		user("Quiero contratar, ¿cuándo podemos empezar?"),
		user("Perfecto, ¿qué formas de pago tienen?"),
	}, nil)

	if hot.Probability <= cold.Probability {
		t.Errorf("buying intent did not raise probability: hot=%f cold=%f", hot.Probability, cold.Probability)
	}
	if hot.Probability < 0 || hot.Probability > 1 {
		t.Errorf("probability %f outside [0,1]", hot.Probability)
	}
}

func TestConversionPredict_ProfileAdjustments(t *testing.T) {
	p, _ := newConversionPredictor(t)
	ctx := context.Background()
	msgs := []convo.Message{user("Me interesa, quiero empezar")}

	base := p.Predict(ctx, "conv-base", msgs, nil)
	existing := p.Predict(ctx, "conv-exist", msgs, &convo.CustomerProfile{PreviousPurchases: 2})
	sensitive := p.Predict(ctx, "conv-sens", msgs, &convo.CustomerProfile{Segment: "price_sensitive"})

	if existing.Probability <= base.Probability {
		t.Errorf("existing customer bonus missing: %f <= %f", existing.Probability, base.Probability)
	}
	if sensitive.Probability >= base.Probability {
		t.Errorf("price sensitive penalty missing: %f >= %f", sensitive.Probability, base.Probability)
	}
}

func TestConversionPredict_DeficiencyRecommendations(t *testing.T) {
	p, _ := newConversionPredictor(t)

	// One terse neutral message: no positive sentiment, so the
	// address_concerns trigger must fire.
	got := p.Predict(context.Background(), "conv-terse", []convo.Message{user("ok")}, nil)

	found := false
	for _, r := range got.Recommendations {
		if r.Action == "address_concerns" {
			found = true
		}
	}
	if !found {
		t.Errorf("flat sentiment did not trigger address_concerns; got %v", got.Recommendations)
	}
}

func TestConversionPredict_RecommendationsSortedByPriority(t *testing.T) {
	p, _ := newConversionPredictor(t)

	got := p.Predict(context.Background(), "conv-rec", []convo.Message{user("Hola, cuéntame del servicio")}, nil)

	last := -1
	for _, r := range got.Recommendations {
		rank := priorityRank(r.Priority)
		if rank < last {
			t.Fatalf("recommendations not priority-sorted: %v", got.Recommendations)
		}
		last = rank
	}
}
