// Package signals turns raw conversation text into flat {signal: score}
// maps. Detectors never fail: on an internal error they log and return an
// all-zero map so a prediction turn always has something to score.
package signals

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/nlp"
)

// Sentiment signal names.
const (
	SignalSentimentPositive = "sentiment_positive"
	SignalSentimentNegative = "sentiment_negative"
	SignalSentimentNeutral  = "sentiment_neutral"
)

// Sentiment classifies each message with the injected analyzer and returns
// the mean per-class score across messages. Analyzer failures on individual
// messages are logged and skipped; they never zero the whole bundle.
func Sentiment(ctx context.Context, msgs []convo.Message, analyzer nlp.SentimentAnalyzer, logger *slog.Logger) map[string]float64 {
	out := map[string]float64{
		SignalSentimentPositive: 0,
		SignalSentimentNegative: 0,
		SignalSentimentNeutral:  0,
	}
	if len(msgs) == 0 || analyzer == nil {
		return out
	}

	for _, m := range msgs {
		s, err := analyzer.AnalyzeSentiment(ctx, m.Content)
		if err != nil {
			logger.Warn("sentiment analysis failed, skipping message", "error", err)
			metrics.PredictionErrors.WithLabelValues("sentiment").Inc()
			continue
		}
		switch s.Label {
		case nlp.SentimentPositive:
			out[SignalSentimentPositive] += s.Score
		case nlp.SentimentNegative:
			out[SignalSentimentNegative] += s.Score
		default:
			out[SignalSentimentNeutral] += s.Score
		}
	}
	n := float64(len(msgs))
	for k := range out {
		out[k] /= n
	}
	return out
}

// KeywordCounts counts case-insensitive whole-word keyword occurrences per
// category across the customer messages. Counts are raw; the scoring layer
// normalizes them.
func KeywordCounts(msgs []convo.Message, keywords map[string][]string) map[string]float64 {
	out := make(map[string]float64, len(keywords))
	for category := range keywords {
		out[category] = 0
	}

	text := convo.JoinedText(convo.CustomerMessages(msgs))
	if text == "" {
		return out
	}
	for category, words := range keywords {
		for _, kw := range words {
			out[category] += float64(CountOccurrences(text, kw))
		}
	}
	return out
}

// CountOccurrences counts kw in text with word-boundary semantics: a match
// only counts when the adjacent runes are not letters or digits. Symbol
// keywords like "$" therefore match inside "$2,700". Both arguments are
// matched lowercased.
func CountOccurrences(text, kw string) int {
	text = strings.ToLower(text)
	kw = strings.ToLower(kw)
	if kw == "" {
		return 0
	}
	count := 0
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(kw)
		if boundaryBefore(text, start, kw) && boundaryAfter(text, end, kw) {
			count++
		}
		i = start + len(kw)
	}
	return count
}

func boundaryBefore(text string, start int, kw string) bool {
	if !startsWithWordRune(kw) {
		return true
	}
	if start == 0 {
		return true
	}
	r := lastRune(text[:start])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, end int, kw string) bool {
	if !endsWithWordRune(kw) {
		return true
	}
	if end >= len(text) {
		return true
	}
	r := firstRune(text[end:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func startsWithWordRune(s string) bool {
	r := firstRune(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func endsWithWordRune(s string) bool {
	r := lastRune(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}

// Question pattern signal names.
const (
	SignalDirectQuestions        = "direct_questions"
	SignalClarificationQuestions = "clarification_questions"
	SignalComparisonQuestions    = "comparison_questions"
)

var (
	directQuestionRe        = regexp.MustCompile(`(?i)\b(qué|que|cómo|como|cuándo|cuando|cuánto|cuanto|cuál|cual|dónde|donde|quién|quien|por qué|what|how|when|which|where|why|who)\b.*\?`)
	clarificationQuestionRe = regexp.MustCompile(`(?i)\b(podrías|podría|puedes|puede|me explicas|could you|can you|would you)\b.*\?`)
	comparisonRe            = regexp.MustCompile(`(?i)\b(comparar|comparación|diferencia|versus|vs|mejor que|peor que|alternativa|compare|difference|better than)\b`)
)

// QuestionPatterns regex-classifies the customer utterances and returns the
// mean count of each question class per message.
func QuestionPatterns(msgs []convo.Message) map[string]float64 {
	out := map[string]float64{
		SignalDirectQuestions:        0,
		SignalClarificationQuestions: 0,
		SignalComparisonQuestions:    0,
	}
	customer := convo.CustomerMessages(msgs)
	if len(customer) == 0 {
		return out
	}

	for _, m := range customer {
		if directQuestionRe.MatchString(m.Content) {
			out[SignalDirectQuestions]++
		}
		if clarificationQuestionRe.MatchString(m.Content) {
			out[SignalClarificationQuestions]++
		}
		if comparisonRe.MatchString(m.Content) {
			out[SignalComparisonQuestions]++
		}
	}
	n := float64(len(customer))
	for k := range out {
		out[k] /= n
	}
	return out
}

// Engagement signal names.
const (
	SignalMessageLength          = "message_length"
	SignalConversationContinuity = "conversation_continuity"
	SignalResponseTime           = "response_time"
)

// Engagement derives engagement-level signals from message shape: mean
// customer message length (scaled by 200 chars, capped at 1) and the
// customer's share of the conversation.
//
// TODO: compute response_time from message timestamps once the orchestrator
// reliably sets them; every upstream producer currently sends zero values,
// so the signal stays 0 and the conversion predictor uses its message-count
// proxy instead.
func Engagement(msgs []convo.Message) map[string]float64 {
	out := map[string]float64{
		SignalMessageLength:          0,
		SignalConversationContinuity: 0,
		SignalResponseTime:           0,
	}
	if len(msgs) == 0 {
		return out
	}

	customer := convo.CustomerMessages(msgs)
	if len(customer) > 0 {
		totalLen := 0
		for _, m := range customer {
			totalLen += len([]rune(m.Content))
		}
		mean := float64(totalLen) / float64(len(customer))
		length := mean / 200.0
		if length > 1 {
			length = 1
		}
		out[SignalMessageLength] = length
	}
	out[SignalConversationContinuity] = float64(len(customer)) / float64(len(msgs))
	return out
}
