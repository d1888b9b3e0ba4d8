package train

import (
	"context"
	"sort"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/features"
	"github.com/ngx-platform/foresight/internal/predict"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/scoring"
)

// PredictObjections classifies the joined customer text and returns every
// objection class above the confidence cutoff, ranked by probability.
func (t *Trainer) PredictObjections(_ context.Context, msgs []convo.Message) (predict.ObjectionResult, error) {
	b := t.bundle(domainObjection)
	if b == nil {
		return predict.EmptyObjectionResult(), ErrNotTrained
	}

	result := predict.EmptyObjectionResult()
	result.Source = predict.SourceML

	text := convo.JoinedText(convo.CustomerMessages(msgs))
	if text == "" {
		return result, nil
	}

	proba, err := b.PredictProba(featureVector(b.Vectorizer, text))
	if err != nil {
		return predict.EmptyObjectionResult(), err
	}
	classes := b.Classes()
	for k, p := range proba {
		if p >= confidenceCutoff {
			result.Objections = append(result.Objections, predict.ScoredCategory{
				Category:  classes[k],
				Score:     p,
				Responses: t.rules.Objection.Responses[classes[k]],
			})
		}
	}
	sortScored(result.Objections)
	if len(result.Objections) > 0 {
		result.Confidence = result.Objections[0].Score
	}
	return result, nil
}

// PredictNeeds classifies the joined customer text into need categories.
func (t *Trainer) PredictNeeds(_ context.Context, msgs []convo.Message, profile *convo.CustomerProfile) (predict.NeedsResult, error) {
	b := t.bundle(domainNeeds)
	if b == nil {
		return predict.EmptyNeedsResult(), ErrNotTrained
	}

	result := predict.EmptyNeedsResult()
	result.Source = predict.SourceML
	result.Features = features.Extract(msgs, profile)

	text := convo.JoinedText(convo.CustomerMessages(msgs))
	if text == "" {
		return result, nil
	}

	proba, err := b.PredictProba(featureVector(b.Vectorizer, text))
	if err != nil {
		return predict.EmptyNeedsResult(), err
	}
	classes := b.Classes()
	for k, p := range proba {
		if p >= confidenceCutoff {
			result.Needs = append(result.Needs, predict.ScoredCategory{
				Category:  classes[k],
				Score:     p,
				Responses: t.rules.Needs.Actions[classes[k]],
			})
		}
	}
	sortScored(result.Needs)
	if len(result.Needs) > 0 {
		result.Confidence = result.Needs[0].Score
	}
	return result, nil
}

// Representative probabilities for the discrete conversion levels, used to
// turn the class distribution into one scalar probability.
var levelValues = map[string]float64{
	predict.ConversionLow:    0.15,
	predict.ConversionMedium: 0.5,
	predict.ConversionHigh:   0.9,
}

// PredictConversion maps the level distribution to an expected conversion
// probability plus the most likely discrete level.
func (t *Trainer) PredictConversion(_ context.Context, msgs []convo.Message) (predict.ConversionResult, error) {
	b := t.bundle(domainConversion)
	if b == nil {
		return predict.EmptyConversionResult(), ErrNotTrained
	}

	result := predict.EmptyConversionResult()
	result.Source = predict.SourceML

	text := convo.JoinedText(convo.CustomerMessages(msgs))
	if text == "" {
		return result, nil
	}

	proba, err := b.PredictProba(featureVector(b.Vectorizer, text))
	if err != nil {
		return predict.EmptyConversionResult(), err
	}
	classes := b.Classes()

	probability := 0.0
	top := 0
	for k, p := range proba {
		probability += p * levelValues[classes[k]]
		result.Signals["level_"+classes[k]] = p
		if p > proba[top] {
			top = k
		}
	}

	result.Probability = scoring.Clamp(probability)
	result.Confidence = proba[top]
	result.Category = classes[top]
	result.Recommendations = append([]rules.Recommendation{},
		t.rules.Conversion.CategoryRecommendations[result.Category]...)
	return result, nil
}

func sortScored(items []predict.ScoredCategory) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Category < items[j].Category
	})
}
