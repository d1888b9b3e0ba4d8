package predict

import (
	"github.com/ngx-platform/foresight/internal/features"
	"github.com/ngx-platform/foresight/internal/rules"
)

// Prediction sources, reported so callers can audit provenance. Rule-based
// results carry no source tag.
const (
	SourceML       = "ml"
	SourceFallback = "fallback"
)

// Conversion categories.
const (
	ConversionLow    = "low"
	ConversionMedium = "medium"
	ConversionHigh   = "high"
)

// ScoredCategory is one ranked prediction with its curated suggestions.
type ScoredCategory struct {
	Category  string   `json:"category"`
	Score     float64  `json:"score"`
	Responses []string `json:"suggested_responses,omitempty"`
}

// ObjectionResult is the outcome of an objection prediction. Always
// well-formed: empty slices and maps, never nil fields, on failure.
type ObjectionResult struct {
	Objections []ScoredCategory   `json:"objections"`
	Confidence float64            `json:"confidence"`
	Signals    map[string]float64 `json:"signals"`
	Source     string             `json:"source,omitempty"`
}

// EmptyObjectionResult is the zero-confidence response used on any failure.
func EmptyObjectionResult() ObjectionResult {
	return ObjectionResult{
		Objections: []ScoredCategory{},
		Signals:    map[string]float64{},
	}
}

// NeedsResult is the outcome of a needs prediction.
type NeedsResult struct {
	Needs      []ScoredCategory `json:"needs"`
	Confidence float64          `json:"confidence"`
	Features   features.Bundle  `json:"features"`
	Source     string           `json:"source,omitempty"`
}

// EmptyNeedsResult is the zero-confidence response used on any failure.
func EmptyNeedsResult() NeedsResult {
	return NeedsResult{
		Needs:    []ScoredCategory{},
		Features: features.Bundle{Message: map[string]float64{}, Conversation: map[string]float64{}, Customer: map[string]string{}},
	}
}

// ConversionResult is the outcome of a conversion prediction.
type ConversionResult struct {
	Probability     float64                `json:"probability"`
	Confidence      float64                `json:"confidence"`
	Category        string                 `json:"category"`
	Signals         map[string]float64     `json:"signals"`
	Recommendations []rules.Recommendation `json:"recommendations"`
	Source          string                 `json:"source,omitempty"`
}

// EmptyConversionResult is the zero-probability response used on any failure.
func EmptyConversionResult() ConversionResult {
	return ConversionResult{
		Category:        ConversionLow,
		Signals:         map[string]float64{},
		Recommendations: []rules.Recommendation{},
	}
}

// MergeRecommendations combines recommendation lists from multiple sources,
// deduplicated by action and priority-sorted. A limit of 0 keeps everything.
func MergeRecommendations(limit int, lists ...[]rules.Recommendation) []rules.Recommendation {
	var all []rules.Recommendation
	for _, l := range lists {
		all = append(all, l...)
	}
	return sortRecommendations(all, limit)
}

// priorityRank orders recommendation priorities for sorting.
func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}
