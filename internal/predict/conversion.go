package predict

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/scoring"
	"github.com/ngx-platform/foresight/internal/signals"
)

// Conversion signal names.
const (
	SignalBuying            = "buying_signals"
	SignalEngagementLevel   = "engagement_level"
	SignalQuestionFrequency = "question_frequency"
	SignalPositiveSentiment = "positive_sentiment"
	SignalSpecificInquiries = "specific_inquiries"
	SignalTimeInvestment    = "time_investment"
)

// ConversionPredictor estimates the probability the conversation converts,
// blending six signals through a weighted mean plus profile adjustments.
type ConversionPredictor struct {
	svc       *Service
	rules     rules.ConversionRules
	sentiment nlp.SentimentAnalyzer
	logger    *slog.Logger
}

func NewConversionPredictor(svc *Service, r rules.ConversionRules, sentiment nlp.SentimentAnalyzer, logger *slog.Logger) *ConversionPredictor {
	return &ConversionPredictor{svc: svc, rules: r, sentiment: sentiment, logger: logger}
}

// Service exposes the underlying base service for outcome recording.
func (p *ConversionPredictor) Service() *Service { return p.svc }

// Predict returns the conversion probability, its discrete category, and a
// priority-sorted recommendation list, storing the result as the turn's
// pending prediction. Never fails: empty input yields probability 0,
// confidence 0, category "low".
func (p *ConversionPredictor) Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) ConversionResult {
	result := p.Evaluate(ctx, msgs, profile)
	if len(msgs) == 0 {
		return result
	}
	p.StoreResult(ctx, conversationID, result)
	metrics.PredictionsTotal.WithLabelValues("conversion", "rules").Inc()
	return result
}

// Evaluate computes the rule-based conversion result without persisting it.
// Callers that blend it with another source store the final result
// themselves via StoreResult.
func (p *ConversionPredictor) Evaluate(ctx context.Context, msgs []convo.Message, profile *convo.CustomerProfile) ConversionResult {
	start := time.Now()
	defer func() {
		metrics.PredictionDuration.WithLabelValues("conversion").Observe(time.Since(start).Seconds())
	}()

	if len(msgs) == 0 {
		return EmptyConversionResult()
	}

	window := convo.LastN(msgs, p.rules.ContextWindow)
	sig := p.collectSignals(ctx, msgs, window)

	probability := 0.0
	for name, value := range sig {
		probability += value * p.rules.SignalWeights[name]
	}
	probability = scoring.Clamp(probability + p.profileAdjustment(profile))

	category := p.Categorize(probability)

	return ConversionResult{
		Probability:     probability,
		Confidence:      scoring.Confidence(sig, scoring.DefaultDiversityFactor),
		Category:        category,
		Signals:         sig,
		Recommendations: p.recommend(category, sig),
	}
}

// StoreResult persists a conversion result against this predictor's model,
// so the outcome feedback loop finds a pending row for the turn.
func (p *ConversionPredictor) StoreResult(ctx context.Context, conversationID string, r ConversionResult) {
	p.svc.StorePrediction(ctx, conversationID, "conversion", r, r.Confidence)
}

// collectSignals produces the six blended signals, each in [0,1]. The full
// message history drives time_investment; everything else reads the window.
func (p *ConversionPredictor) collectSignals(ctx context.Context, all, window []convo.Message) map[string]float64 {
	text := convo.JoinedText(convo.CustomerMessages(window))

	buying := 0
	for _, kw := range p.rules.BuyingKeywords {
		buying += signals.CountOccurrences(text, kw)
	}
	inquiries := 0
	for _, kw := range p.rules.InquiryKeywords {
		inquiries += signals.CountOccurrences(text, kw)
	}

	engagement := signals.Engagement(window)
	questions := signals.QuestionPatterns(window)
	sentiment := signals.Sentiment(ctx, window, p.sentiment, p.logger)

	return map[string]float64{
		SignalBuying:          scoring.Clamp(float64(buying) / 2.0),
		SignalEngagementLevel: scoring.Clamp((engagement[signals.SignalMessageLength] + engagement[signals.SignalConversationContinuity]) / 2),
		SignalQuestionFrequency: scoring.Clamp(
			questions[signals.SignalDirectQuestions] + questions[signals.SignalClarificationQuestions]),
		SignalPositiveSentiment: scoring.Clamp(sentiment[signals.SignalSentimentPositive]),
		SignalSpecificInquiries: scoring.Clamp(float64(inquiries) / 2.0),
		// Proxy for invested time; see the response_time note in signals.
		SignalTimeInvestment: scoring.Clamp(float64(len(all)) / 20.0),
	}
}

// profileAdjustment applies the fixed additive deltas for known customer
// attributes.
func (p *ConversionPredictor) profileAdjustment(profile *convo.CustomerProfile) float64 {
	if profile == nil {
		return 0
	}
	delta := 0.0
	if profile.PreviousPurchases > 0 {
		delta += p.rules.ExistingCustomerBonus
	}
	switch profile.Segment {
	case "premium":
		delta += p.rules.PremiumSegmentBonus
	case "price_sensitive":
		delta -= p.rules.PriceSensitivePenalty
	}
	if profile.InteractionCount > 5 {
		delta += p.rules.FrequentInteractionsBonus
	}
	return delta
}

// Categorize maps a probability to its discrete level.
func (p *ConversionPredictor) Categorize(probability float64) string {
	switch {
	case probability >= p.rules.HighThreshold:
		return ConversionHigh
	case probability >= p.rules.MediumThreshold:
		return ConversionMedium
	default:
		return ConversionLow
	}
}

// recommend merges the category's curated recommendations with
// signal-deficiency triggers, deduplicated and priority-sorted.
func (p *ConversionPredictor) recommend(category string, sig map[string]float64) []rules.Recommendation {
	recs := append([]rules.Recommendation{}, p.rules.CategoryRecommendations[category]...)
	for _, trigger := range p.rules.DeficiencyTriggers {
		if sig[trigger.Signal] < trigger.Below {
			recs = append(recs, trigger.Recommendation)
		}
	}
	return sortRecommendations(recs, 0)
}
