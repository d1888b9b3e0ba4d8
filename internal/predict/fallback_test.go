package predict

import (
	"math"
	"testing"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/rules"
)

func newFallback() *Fallback {
	return NewFallback(rules.Default().Fallback)
}

func TestFallbackObjections_PriceKeywords(t *testing.T) {
	f := newFallback()

	msgs := []convo.Message{
		user("Suena bien pero $2,700 al mes es mucho"),
	}

	got := f.PredictObjections(msgs)

	if len(got.Objections) == 0 {
		t.Fatal("expected a price objection")
	}
	if got.Objections[0].Category != "price" {
		t.Errorf("top objection = %q, want price", got.Objections[0].Category)
	}
	// Two hits ("$" and "mucho") at weight 3.0 over 7 keywords.
	want := 2 * 3.0 / 7.0
	if math.Abs(got.Objections[0].Score-want) > 1e-9 {
		t.Errorf("score = %f, want %f", got.Objections[0].Score, want)
	}
	if got.Confidence < 0.5 {
		t.Errorf("confidence = %f, want >= 0.5", got.Confidence)
	}
	if got.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", got.Source)
	}
	if len(got.Objections[0].Responses) == 0 {
		t.Error("fallback objection carries no response")
	}
}

func TestFallbackObjections_BelowThresholdFiltered(t *testing.T) {
	f := newFallback()

	// One urgency hit: 1 × 2.0 / 5 = 0.4, under the 0.5 cutoff.
	got := f.PredictObjections([]convo.Message{user("Hablemos luego")})

	if len(got.Objections) != 0 {
		t.Errorf("objections = %v, want empty below threshold", got.Objections)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", got.Confidence)
	}
}

func TestFallbackNeeds_PricingKeywords(t *testing.T) {
	f := newFallback()

	got := f.PredictNeeds([]convo.Message{user("¿Me pasas el precio y los planes?")})

	if len(got.Needs) == 0 {
		t.Fatal("expected a pricing need")
	}
	if got.Needs[0].Category != "pricing" {
		t.Errorf("top need = %q, want pricing", got.Needs[0].Category)
	}
	if got.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", got.Source)
	}
}

func TestFallbackConversion_Levels(t *testing.T) {
	f := newFallback()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "strong buying language",
			text: "Me interesa, es excelente, perfecto, quiero comprar",
			want: ConversionHigh,
		},
		{
			name: "mild interest",
			text: "Me gusta y me interesa",
			want: ConversionMedium,
		},
		{
			name: "rejection",
			text: "No gracias",
			want: ConversionLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.PredictConversion([]convo.Message{user(tt.text)})
			if got.Category != tt.want {
				t.Errorf("category = %q (score %f), want %q", got.Category, got.Probability, tt.want)
			}
			if got.Probability < 0 || got.Probability > 1 {
				t.Errorf("probability %f outside [0,1]", got.Probability)
			}
		})
	}
}

func TestFallbackConversion_ManyQuestionsForceExplanation(t *testing.T) {
	f := newFallback()

	got := f.PredictConversion([]convo.Message{
		user("¿Cuánto sale? ¿Qué incluye? ¿Hay prueba? ¿Cómo empiezo?"),
	})

	found := false
	for _, r := range got.Recommendations {
		if r.Action == "detailed_explanation" {
			found = true
		}
	}
	if !found {
		t.Errorf("four questions did not force detailed_explanation; got %v", got.Recommendations)
	}
}

func TestFallbackConversion_NegativeToneForcesTrustRebuild(t *testing.T) {
	f := newFallback()

	got := f.PredictConversion([]convo.Message{
		user("Es muy caro y dudo que sirva, no gracias"),
	})

	found := false
	for _, r := range got.Recommendations {
		if r.Action == "rebuild_trust" {
			found = true
		}
	}
	if !found {
		t.Errorf("negative tone did not force rebuild_trust; got %v", got.Recommendations)
	}
}

func TestFallbackConversion_RecommendationsCappedAtThree(t *testing.T) {
	f := newFallback()

	// Medium level plus both forced recommendations would make four.
	got := f.PredictConversion([]convo.Message{
		user("Tal vez, puede ser, pero es caro. ¿Por qué? ¿Cómo? ¿Cuándo? ¿Dónde? ¿Qué? ¿Quién? ¿Cuál? ¿Para qué?"),
	})

	if len(got.Recommendations) > 3 {
		t.Errorf("recommendations = %d, want at most 3", len(got.Recommendations))
	}
	if got.Recommendations[0].Priority != "high" {
		t.Errorf("first recommendation priority = %q, want high", got.Recommendations[0].Priority)
	}
}

func TestFallbackConversion_EmptyConversation(t *testing.T) {
	f := newFallback()

	got := f.PredictConversion(nil)

	if got.Probability != 0 || got.Category != ConversionLow {
		t.Errorf("got probability %f category %q, want 0 and low", got.Probability, got.Category)
	}
	if got.Signals == nil || got.Recommendations == nil {
		t.Error("signals and recommendations must be non-nil")
	}
	if got.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", got.Source)
	}
}
