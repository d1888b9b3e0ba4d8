// Package unified merges ML, rule-based, and fallback predictions into one
// response per domain, so callers always get a usable, provenance-tagged
// prediction.
package unified

import (
	"context"
	"log/slog"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/predict"
	"github.com/ngx-platform/foresight/internal/scoring"
)

// Per-domain confidence cutoffs for accepting the ML result outright.
// Conversion has no cutoff: it always blends both sources.
const (
	objectionCutoff = 0.6
	needsCutoff     = 0.5

	mlBlendWeight   = 0.7
	ruleBlendWeight = 0.3
)

// MLPredictor serves model-based predictions. The trainer implements it;
// it may return an error while no model is available.
type MLPredictor interface {
	PredictObjections(ctx context.Context, msgs []convo.Message) (predict.ObjectionResult, error)
	PredictNeeds(ctx context.Context, msgs []convo.Message, profile *convo.CustomerProfile) (predict.NeedsResult, error)
	PredictConversion(ctx context.Context, msgs []convo.Message) (predict.ConversionResult, error)
}

// ObjectionPredictor is the rule-based objection path. StoreResult persists
// an upstream-produced result so every served prediction leaves exactly one
// pending row for the outcome feedback loop.
type ObjectionPredictor interface {
	Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ObjectionResult
	StoreResult(ctx context.Context, conversationID string, r predict.ObjectionResult)
}

// NeedsPredictor is the rule-based needs path.
type NeedsPredictor interface {
	Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.NeedsResult
	StoreResult(ctx context.Context, conversationID string, r predict.NeedsResult)
}

// ConversionPredictor is the rule-based conversion path. Evaluate computes
// without persisting; the blend path stores its merged result through
// StoreResult instead.
type ConversionPredictor interface {
	Predict(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ConversionResult
	Evaluate(ctx context.Context, msgs []convo.Message, profile *convo.CustomerProfile) predict.ConversionResult
	StoreResult(ctx context.Context, conversationID string, r predict.ConversionResult)
	Categorize(probability float64) string
}

// Service applies the source-precedence policy across the three domains.
type Service struct {
	ml         MLPredictor
	objection  ObjectionPredictor
	needs      NeedsPredictor
	conversion ConversionPredictor
	fallback   *predict.Fallback
	logger     *slog.Logger
}

func New(ml MLPredictor, objection ObjectionPredictor, needs NeedsPredictor, conversion ConversionPredictor, fallback *predict.Fallback, logger *slog.Logger) *Service {
	return &Service{
		ml:         ml,
		objection:  objection,
		needs:      needs,
		conversion: conversion,
		fallback:   fallback,
		logger:     logger,
	}
}

// PredictObjections prefers the ML result when it is non-empty and clears
// the objection cutoff, then the rule-based result, then the keyword
// fallback.
func (s *Service) PredictObjections(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ObjectionResult {
	if s.ml != nil {
		ml, err := s.ml.PredictObjections(ctx, msgs)
		if err != nil {
			s.logger.Debug("ml objection prediction unavailable", "error", err)
		} else if len(ml.Objections) > 0 && ml.Confidence > objectionCutoff {
			s.objection.StoreResult(ctx, conversationID, ml)
			metrics.PredictionsTotal.WithLabelValues("objection", "ml").Inc()
			return ml
		}
	}

	rule := s.objection.Predict(ctx, conversationID, msgs, profile)
	if len(rule.Objections) > 0 {
		return rule
	}

	metrics.FallbacksTotal.WithLabelValues("objection").Inc()
	return s.fallback.PredictObjections(msgs)
}

// PredictNeeds applies the same precedence with the lower needs cutoff.
func (s *Service) PredictNeeds(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.NeedsResult {
	if s.ml != nil {
		ml, err := s.ml.PredictNeeds(ctx, msgs, profile)
		if err != nil {
			s.logger.Debug("ml needs prediction unavailable", "error", err)
		} else if len(ml.Needs) > 0 && ml.Confidence > needsCutoff {
			s.needs.StoreResult(ctx, conversationID, ml)
			metrics.PredictionsTotal.WithLabelValues("needs", "ml").Inc()
			return ml
		}
	}

	rule := s.needs.Predict(ctx, conversationID, msgs, profile)
	if len(rule.Needs) > 0 {
		return rule
	}

	metrics.FallbacksTotal.WithLabelValues("needs").Inc()
	return s.fallback.PredictNeeds(msgs)
}

// PredictConversion never picks one source: when the ML path is available
// it blends 0.7 ML + 0.3 rules, recomputes the level from the blended
// probability, and merges both recommendation and signal sets.
func (s *Service) PredictConversion(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ConversionResult {
	if s.ml == nil {
		return s.conversion.Predict(ctx, conversationID, msgs, profile)
	}

	ml, err := s.ml.PredictConversion(ctx, msgs)
	if err != nil {
		s.logger.Debug("ml conversion prediction unavailable", "error", err)
		return s.conversion.Predict(ctx, conversationID, msgs, profile)
	}

	// The blended result is the served prediction, so it is the one stored
	// for outcome recording; the rule evaluation stays unpersisted.
	rule := s.conversion.Evaluate(ctx, msgs, profile)

	blended := predict.EmptyConversionResult()
	blended.Source = predict.SourceML
	blended.Probability = scoring.Clamp(mlBlendWeight*ml.Probability + ruleBlendWeight*rule.Probability)
	blended.Confidence = scoring.Clamp(mlBlendWeight*ml.Confidence + ruleBlendWeight*rule.Confidence)
	blended.Category = s.conversion.Categorize(blended.Probability)
	for name, v := range rule.Signals {
		blended.Signals[name] = v
	}
	for name, v := range ml.Signals {
		blended.Signals[name] = v
	}
	blended.Recommendations = predict.MergeRecommendations(0, rule.Recommendations, ml.Recommendations)
	s.conversion.StoreResult(ctx, conversationID, blended)
	metrics.PredictionsTotal.WithLabelValues("conversion", "ml").Inc()
	return blended
}
