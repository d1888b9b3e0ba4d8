package predict

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/scoring"
	"github.com/ngx-platform/foresight/internal/signals"
)

// ObjectionPredictor scores the customer's likely objections from keyword
// and sentiment signals over the recent context window.
type ObjectionPredictor struct {
	svc       *Service
	rules     rules.ObjectionRules
	sentiment nlp.SentimentAnalyzer
	logger    *slog.Logger
}

func NewObjectionPredictor(svc *Service, r rules.ObjectionRules, sentiment nlp.SentimentAnalyzer, logger *slog.Logger) *ObjectionPredictor {
	return &ObjectionPredictor{svc: svc, rules: r, sentiment: sentiment, logger: logger}
}

// Service exposes the underlying base service for outcome recording.
func (p *ObjectionPredictor) Service() *Service { return p.svc }

// Predict returns the ranked objection categories above the configured
// confidence threshold. It never fails: bad input or internal errors yield
// an empty, zero-confidence result.
func (p *ObjectionPredictor) Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) ObjectionResult {
	start := time.Now()
	defer func() {
		metrics.PredictionDuration.WithLabelValues("objection").Observe(time.Since(start).Seconds())
	}()

	if len(msgs) == 0 {
		return EmptyObjectionResult()
	}

	window := convo.LastN(msgs, p.rules.ContextWindow)

	raw := signals.KeywordCounts(window, p.rules.SignalKeywords)
	weighted := scoring.ApplyWeights(raw, p.rules.SignalWeights)

	// Sentiment and question patterns are reported alongside the keyword
	// signals; only the keyword signals map onto objection categories.
	observed := make(map[string]float64, len(weighted)+6)
	for k, v := range weighted {
		observed[k] = v
	}
	for k, v := range signals.Sentiment(ctx, window, p.sentiment, p.logger) {
		observed[k] = v
	}
	for k, v := range signals.QuestionPatterns(window) {
		observed[k] = v
	}

	categories := mapSignalsToCategories(weighted, p.rules.SignalCategories)
	normalizeByMax(categories)
	applyProfileAdjustments(categories, profile, p.rules.ProfileAdjustments)

	threshold := p.svc.ConfidenceThreshold(ctx, p.rules.ConfidenceThreshold)
	ranked := scoring.RankItems(categories, threshold, 0)
	objections := make([]ScoredCategory, 0, len(ranked))
	for _, cat := range ranked {
		objections = append(objections, ScoredCategory{
			Category:  cat,
			Score:     categories[cat],
			Responses: p.rules.Responses[cat],
		})
	}

	confidence := 0.0
	if len(objections) > 0 {
		confidence = objections[0].Score
	}

	result := ObjectionResult{
		Objections: objections,
		Confidence: confidence,
		Signals:    observed,
	}
	p.svc.StorePrediction(ctx, conversationID, "objection", result, confidence)
	metrics.PredictionsTotal.WithLabelValues("objection", "rules").Inc()
	return result
}

// StoreResult persists a result produced upstream (an accepted ML
// prediction) against this predictor's model, so the outcome feedback loop
// finds a pending row for the turn.
func (p *ObjectionPredictor) StoreResult(ctx context.Context, conversationID string, r ObjectionResult) {
	p.svc.StorePrediction(ctx, conversationID, "objection", r, r.Confidence)
}

// mapSignalsToCategories spreads each signal's weighted score onto its
// associated domain categories.
func mapSignalsToCategories(weighted map[string]float64, table map[string][]string) map[string]float64 {
	categories := map[string]float64{}
	for signal, score := range weighted {
		if score <= 0 {
			continue
		}
		for _, cat := range table[signal] {
			categories[cat] += score
		}
	}
	return categories
}

// normalizeByMax scales category scores into [0,1] by the largest observed
// score.
func normalizeByMax(categories map[string]float64) {
	maxScore := 0.0
	for _, v := range categories {
		if v > maxScore {
			maxScore = v
		}
	}
	if maxScore <= 0 {
		return
	}
	for k := range categories {
		categories[k] /= maxScore
	}
}

// applyProfileAdjustments adds the fixed per-attribute deltas from the rule
// table, clamping every score back into [0,1]. Adjustment keys are
// "field:value", e.g. "industry:finance".
func applyProfileAdjustments(categories map[string]float64, profile *convo.CustomerProfile, adjustments map[string]map[string]float64) {
	if profile == nil || len(adjustments) == 0 {
		return
	}
	attrs := []string{
		"industry:" + profile.Industry,
		"segment:" + profile.Segment,
		"company_size:" + profile.CompanySize,
	}
	for _, attr := range attrs {
		for cat, delta := range adjustments[attr] {
			if _, ok := categories[cat]; !ok && delta <= 0 {
				continue
			}
			categories[cat] = scoring.Clamp(categories[cat] + delta)
		}
	}
}

// sortRecommendations orders by priority (high first), deduplicating by
// action, keeping at most limit entries (0 = unlimited).
func sortRecommendations(recs []rules.Recommendation, limit int) []rules.Recommendation {
	seen := map[string]bool{}
	out := make([]rules.Recommendation, 0, len(recs))
	for _, r := range recs {
		if seen[r.Action] {
			continue
		}
		seen[r.Action] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
