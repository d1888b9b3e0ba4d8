// Package nlp holds the language capabilities the predictors consume:
// per-message sentiment classification and entity extraction. Both are
// interfaces so the default implementations can be swapped for a hosted NLP
// service without touching the predictors.
package nlp

import (
	"context"
	"strings"
	"unicode"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Sentiment is the per-message classification result. Score is the strength
// of the label in [0,1].
type Sentiment struct {
	Label string  `json:"sentiment"`
	Score float64 `json:"score"`
}

// SentimentAnalyzer classifies the sentiment of a single message.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error)
}

// LexiconAnalyzer is the default analyzer: a Spanish/English polarity lexicon
// with a simple negation flip. Good enough as a signal source; callers treat
// it as a black box.
type LexiconAnalyzer struct {
	positive map[string]bool
	negative map[string]bool
	negators map[string]bool
}

// NewLexiconAnalyzer builds the analyzer with the built-in lexicon.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		positive: toSet([]string{
			"bueno", "buena", "bien", "genial", "excelente", "perfecto", "perfecta",
			"encanta", "gusta", "interesa", "interesante", "útil", "claro", "gracias",
			"quiero", "ideal", "fácil", "rápido", "mejor",
			"good", "great", "excellent", "perfect", "love", "like", "interested",
			"useful", "easy", "fast", "better", "thanks",
		}),
		negative: toSet([]string{
			"malo", "mala", "mal", "caro", "cara", "costoso", "difícil", "complicado",
			"problema", "problemas", "duda", "dudas", "riesgo", "preocupa", "lento",
			"peor", "nunca", "imposible", "mucho",
			"bad", "expensive", "difficult", "complicated", "problem", "risk",
			"worried", "slow", "worse", "never",
		}),
		negators: toSet([]string{"no", "nunca", "jamás", "not", "never", "don't", "doesn't"}),
	}
}

// AnalyzeSentiment never returns an error; it satisfies the interface so
// remote implementations can report transport failures.
func (a *LexiconAnalyzer) AnalyzeSentiment(_ context.Context, text string) (Sentiment, error) {
	words := tokenize(text)
	pos, neg := 0, 0
	negation := 0 // number of upcoming words still under a negator's scope
	for _, w := range words {
		if a.negators[w] {
			negation = 3
			continue
		}
		switch {
		case a.positive[w]:
			if negation > 0 {
				neg++
			} else {
				pos++
			}
		case a.negative[w]:
			if negation > 0 {
				pos++
			} else {
				neg++
			}
		}
		if negation > 0 {
			negation--
		}
	}

	total := pos + neg
	if total == 0 {
		return Sentiment{Label: SentimentNeutral, Score: 1.0}, nil
	}
	if pos > neg {
		return Sentiment{Label: SentimentPositive, Score: float64(pos) / float64(total)}, nil
	}
	if neg > pos {
		return Sentiment{Label: SentimentNegative, Score: float64(neg) / float64(total)}, nil
	}
	return Sentiment{Label: SentimentNeutral, Score: 0.5}, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
