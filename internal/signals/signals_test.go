package signals

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/nlp"
)

func user(content string) convo.Message {
	return convo.Message{Role: convo.RoleUser, Content: content}
}

func assistant(content string) convo.Message {
	return convo.Message{Role: convo.RoleAssistant, Content: content}
}

func TestCountOccurrences(t *testing.T) {
	tests := []struct {
		name string
		text string
		kw   string
		want int
	}{
		{"whole word match", "el precio es alto, precio justo no es", "precio", 2},
		{"no partial word match", "la preciosa vista", "precio", 0},
		{"case insensitive", "PRECIO alto", "precio", 1},
		{"symbol keyword inside number", "son $2,700 al mes", "$", 1},
		{"multi-word keyword", "no estoy seguro de esto", "no estoy seguro", 1},
		{"accented keyword", "quizás más tarde", "quizás", 1},
		{"absent", "hola", "precio", 0},
		{"empty keyword", "hola", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountOccurrences(tt.text, tt.kw); got != tt.want {
				t.Errorf("CountOccurrences(%q, %q) = %d, want %d", tt.text, tt.kw, got, tt.want)
			}
		})
	}
}

func TestKeywordCounts(t *testing.T) {
	msgs := []convo.Message{
		user("El precio me parece caro"),
		assistant("Tenemos planes flexibles de precio bajo"), // agent text must not count
		user("¿Hay descuento?"),
	}
	keywords := map[string][]string{
		"price_mentions":   {"precio", "caro", "descuento"},
		"hesitation_words": {"quizás"},
	}

	got := KeywordCounts(msgs, keywords)

	if got["price_mentions"] != 3 {
		t.Errorf("price_mentions = %f, want 3", got["price_mentions"])
	}
	if got["hesitation_words"] != 0 {
		t.Errorf("hesitation_words = %f, want 0", got["hesitation_words"])
	}
}

func TestKeywordCounts_EmptyConversation(t *testing.T) {
	got := KeywordCounts(nil, map[string][]string{"price_mentions": {"precio"}})
	if got["price_mentions"] != 0 {
		t.Errorf("expected zero map for empty conversation, got %v", got)
	}
}

func TestQuestionPatterns(t *testing.T) {
	msgs := []convo.Message{
		user("¿Cuánto cuesta el plan mensual?"),
		user("¿Podrías explicarme cómo funciona?"),
		user("Quiero comparar con la alternativa que ya uso"),
		user("Perfecto, gracias"),
	}

	got := QuestionPatterns(msgs)

	if got[SignalDirectQuestions] != 0.5 {
		t.Errorf("direct_questions = %f, want 0.5", got[SignalDirectQuestions])
	}
	if got[SignalClarificationQuestions] != 0.25 {
		t.Errorf("clarification_questions = %f, want 0.25", got[SignalClarificationQuestions])
	}
	if got[SignalComparisonQuestions] != 0.25 {
		t.Errorf("comparison_questions = %f, want 0.25", got[SignalComparisonQuestions])
	}
}

func TestQuestionPatterns_Empty(t *testing.T) {
	got := QuestionPatterns(nil)
	for k, v := range got {
		if v != 0 {
			t.Errorf("%s = %f, want 0 for empty conversation", k, v)
		}
	}
}

func TestEngagement(t *testing.T) {
	long := make([]rune, 400)
	for i := range long {
		long[i] = 'a'
	}
	msgs := []convo.Message{
		user(string(long)), // 400 chars, capped contribution
		assistant("ok"),
	}

	got := Engagement(msgs)

	if got[SignalMessageLength] != 1.0 {
		t.Errorf("message_length = %f, want capped at 1.0", got[SignalMessageLength])
	}
	if math.Abs(got[SignalConversationContinuity]-0.5) > 1e-9 {
		t.Errorf("conversation_continuity = %f, want 0.5", got[SignalConversationContinuity])
	}
	if got[SignalResponseTime] != 0 {
		t.Errorf("response_time = %f, want 0 (unimplemented proxy)", got[SignalResponseTime])
	}
}

func TestEngagement_Empty(t *testing.T) {
	got := Engagement(nil)
	for k, v := range got {
		if v != 0 {
			t.Errorf("%s = %f, want 0", k, v)
		}
	}
}

type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeSentiment(context.Context, string) (nlp.Sentiment, error) {
	return nlp.Sentiment{}, context.DeadlineExceeded
}

func TestSentiment(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	analyzer := nlp.NewLexiconAnalyzer()

	msgs := []convo.Message{
		user("Me encanta, es excelente"),
		user("Es muy caro y complicado"),
	}

	got := Sentiment(ctx, msgs, analyzer, logger)

	if got[SignalSentimentPositive] <= 0 {
		t.Errorf("sentiment_positive = %f, want > 0", got[SignalSentimentPositive])
	}
	if got[SignalSentimentNegative] <= 0 {
		t.Errorf("sentiment_negative = %f, want > 0", got[SignalSentimentNegative])
	}
	for k, v := range got {
		if v < 0 || v > 1 {
			t.Errorf("%s = %f outside [0,1]", k, v)
		}
	}
}

func TestSentiment_AnalyzerFailureYieldsZeros(t *testing.T) {
	before := testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("sentiment"))

	got := Sentiment(context.Background(), []convo.Message{user("hola")}, failingAnalyzer{}, slog.Default())
	for k, v := range got {
		if v != 0 {
			t.Errorf("%s = %f, want 0 when every message fails", k, v)
		}
	}

	after := testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("sentiment"))
	if after-before != 1 {
		t.Errorf("sentiment error counter moved by %f, want 1", after-before)
	}
}

func TestSentiment_NilAnalyzer(t *testing.T) {
	got := Sentiment(context.Background(), []convo.Message{user("hola")}, nil, slog.Default())
	for k, v := range got {
		if v != 0 {
			t.Errorf("%s = %f, want 0 with nil analyzer", k, v)
		}
	}
}
