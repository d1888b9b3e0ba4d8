package predict

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/features"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/scoring"
	"github.com/ngx-platform/foresight/internal/signals"
)

// NeedsPredictor identifies what the customer is asking for: keyword
// signals plus two extra signal classes, explicit-request phrases and named
// entity mentions, each with its own weight.
type NeedsPredictor struct {
	svc      *Service
	rules    rules.NeedsRules
	entities nlp.EntityExtractor
	logger   *slog.Logger
}

func NewNeedsPredictor(svc *Service, r rules.NeedsRules, entities nlp.EntityExtractor, logger *slog.Logger) *NeedsPredictor {
	return &NeedsPredictor{svc: svc, rules: r, entities: entities, logger: logger}
}

// Service exposes the underlying base service for outcome recording.
func (p *NeedsPredictor) Service() *Service { return p.svc }

// Predict returns the ranked need categories above the configured
// confidence threshold. Never fails; empty input or internal errors yield an
// empty result.
func (p *NeedsPredictor) Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) NeedsResult {
	start := time.Now()
	defer func() {
		metrics.PredictionDuration.WithLabelValues("needs").Observe(time.Since(start).Seconds())
	}()

	if len(msgs) == 0 {
		return EmptyNeedsResult()
	}

	window := convo.LastN(msgs, p.rules.ContextWindow)
	bundle := features.Extract(window, profile)

	raw := signals.KeywordCounts(window, p.rules.SignalKeywords)
	weighted := scoring.ApplyWeights(raw, p.rules.SignalWeights)
	categories := mapSignalsToCategories(weighted, p.rules.SignalCategories)

	p.scoreExplicitRequests(window, categories)
	p.scoreEntityMentions(ctx, window, categories)

	normalizeByMax(categories)
	applyProfileAdjustments(categories, profile, p.rules.ProfileAdjustments)

	threshold := p.svc.ConfidenceThreshold(ctx, p.rules.ConfidenceThreshold)
	ranked := scoring.RankItems(categories, threshold, 0)
	needs := make([]ScoredCategory, 0, len(ranked))
	for _, cat := range ranked {
		needs = append(needs, ScoredCategory{
			Category:  cat,
			Score:     categories[cat],
			Responses: p.rules.Actions[cat],
		})
	}

	confidence := 0.0
	if len(needs) > 0 {
		confidence = needs[0].Score
	}

	result := NeedsResult{
		Needs:      needs,
		Confidence: confidence,
		Features:   bundle,
	}
	p.svc.StorePrediction(ctx, conversationID, "need", result, confidence)
	metrics.PredictionsTotal.WithLabelValues("needs", "rules").Inc()
	return result
}

// StoreResult persists a result produced upstream (an accepted ML
// prediction) against this predictor's model, so the outcome feedback loop
// finds a pending row for the turn.
func (p *NeedsPredictor) StoreResult(ctx context.Context, conversationID string, r NeedsResult) {
	p.svc.StorePrediction(ctx, conversationID, "need", r, r.Confidence)
}

// scoreExplicitRequests boosts the categories already in play when the
// customer phrases a need directly ("necesito", "quiero", ...). With no
// category detected yet, an explicit request counts toward "information".
func (p *NeedsPredictor) scoreExplicitRequests(msgs []convo.Message, categories map[string]float64) {
	text := convo.JoinedText(convo.CustomerMessages(msgs))
	count := 0
	for _, phrase := range p.rules.RequestPhrases {
		count += signals.CountOccurrences(text, phrase)
	}
	if count == 0 {
		return
	}
	boost := float64(count) * p.rules.RequestWeight
	if len(categories) == 0 {
		categories["information"] = boost
		return
	}
	for cat := range categories {
		categories[cat] += boost
	}
}

// scoreEntityMentions maps named entities in customer messages onto need
// categories. Extractor failures are logged and skipped.
func (p *NeedsPredictor) scoreEntityMentions(ctx context.Context, msgs []convo.Message, categories map[string]float64) {
	if p.entities == nil || len(p.rules.EntityCategories) == 0 {
		return
	}
	for _, m := range convo.CustomerMessages(msgs) {
		ents, err := p.entities.ExtractEntities(ctx, m.Content)
		if err != nil {
			p.logger.Warn("entity extraction failed, skipping message", "error", err)
			metrics.PredictionErrors.WithLabelValues("entities").Inc()
			continue
		}
		for _, ent := range ents {
			for _, cat := range p.rules.EntityCategories[ent.Type] {
				categories[cat] += p.rules.EntityWeight
			}
		}
	}
}
