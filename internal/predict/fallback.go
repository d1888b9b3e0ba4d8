package predict

import (
	"strings"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/scoring"
	"github.com/ngx-platform/foresight/internal/signals"
)

// Fallback is the pure heuristic predictor: static keyword tables, no model,
// no persistence, no external calls. It backs every domain when the model
// and rule paths come back empty, so a conversation turn always gets a
// usable prediction.
type Fallback struct {
	rules rules.FallbackRules
}

func NewFallback(r rules.FallbackRules) *Fallback {
	return &Fallback{rules: r}
}

// PredictObjections scores each objection category by weighted keyword hits
// normalized by keyword-list length.
func (f *Fallback) PredictObjections(msgs []convo.Message) ObjectionResult {
	text := convo.JoinedText(convo.CustomerMessages(msgs))
	scores := f.scoreTable(text, f.rules.Objections)

	ranked := scoring.RankItems(scores, f.rules.ObjectionThreshold, 0)
	objections := make([]ScoredCategory, 0, len(ranked))
	for _, cat := range ranked {
		objections = append(objections, ScoredCategory{
			Category:  cat,
			Score:     scores[cat],
			Responses: []string{f.rules.Objections[cat].Response},
		})
	}

	result := EmptyObjectionResult()
	result.Objections = objections
	result.Source = SourceFallback
	if len(objections) > 0 {
		result.Confidence = objections[0].Score
	}
	return result
}

// PredictNeeds scores each need category the same way, with the lower need
// threshold.
func (f *Fallback) PredictNeeds(msgs []convo.Message) NeedsResult {
	text := convo.JoinedText(convo.CustomerMessages(msgs))
	scores := f.scoreTable(text, f.rules.Needs)

	ranked := scoring.RankItems(scores, f.rules.NeedThreshold, 0)
	needs := make([]ScoredCategory, 0, len(ranked))
	for _, cat := range ranked {
		needs = append(needs, ScoredCategory{
			Category:  cat,
			Score:     scores[cat],
			Responses: []string{f.rules.Needs[cat].Response},
		})
	}

	result := EmptyNeedsResult()
	result.Needs = needs
	result.Source = SourceFallback
	if len(needs) > 0 {
		result.Confidence = needs[0].Score
	}
	return result
}

// scoreTable computes hits × weight / len(keywords) per category, clamped.
func (f *Fallback) scoreTable(text string, table map[string]rules.KeywordRule) map[string]float64 {
	scores := map[string]float64{}
	if text == "" {
		return scores
	}
	for cat, rule := range table {
		hits := 0
		for _, kw := range rule.Keywords {
			hits += signals.CountOccurrences(text, kw)
		}
		if hits == 0 {
			continue
		}
		scores[cat] = scoring.Clamp(float64(hits) * rule.Weight / float64(len(rule.Keywords)))
	}
	return scores
}

// PredictConversion tallies positive/negative/medium-interest keywords, the
// question count, and a message-count engagement term into one linear score,
// then maps it to a level and derives up to three recommendations.
func (f *Fallback) PredictConversion(msgs []convo.Message) ConversionResult {
	result := EmptyConversionResult()
	result.Source = SourceFallback

	customer := convo.CustomerMessages(msgs)
	if len(customer) == 0 {
		return result
	}
	text := convo.JoinedText(customer)

	cr := f.rules.Conversion
	pos := countAny(text, cr.PositiveKeywords)
	neg := countAny(text, cr.NegativeKeywords)
	med := countAny(text, cr.MediumKeywords)
	questions := strings.Count(text, "?")
	engagement := float64(len(msgs)) / 20.0
	if engagement > 0.3 {
		engagement = 0.3
	}

	score := scoring.Clamp(0.1 +
		0.15*float64(pos) +
		0.05*float64(med) -
		0.12*float64(neg) +
		0.05*float64(questions) +
		engagement)

	category := ConversionLow
	switch {
	case score >= cr.HighThreshold:
		category = ConversionHigh
	case score >= cr.MediumThreshold:
		category = ConversionMedium
	}

	recs := append([]rules.Recommendation{}, cr.Recommendations[category]...)
	if questions > 3 {
		recs = append(recs, rules.Recommendation{
			Action:      "detailed_explanation",
			Priority:    "high",
			Description: "Responder las preguntas acumuladas con una explicación detallada.",
		})
	}
	if neg > pos {
		recs = append(recs, rules.Recommendation{
			Action:      "rebuild_trust",
			Priority:    "high",
			Description: "Atender las señales negativas y reconstruir confianza antes de avanzar.",
		})
	}

	result.Probability = score
	result.Confidence = score
	result.Category = category
	result.Signals = map[string]float64{
		"positive_signals": float64(pos),
		"negative_signals": float64(neg),
		"medium_signals":   float64(med),
		"questions_asked":  float64(questions),
		"engagement":       engagement,
	}
	result.Recommendations = sortRecommendations(recs, 3)
	return result
}

func countAny(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += signals.CountOccurrences(text, kw)
	}
	return total
}
