// Package rules holds every keyword table, weight map, and threshold the
// predictors consume. The scoring algorithms are code; the rules are data,
// loadable from a versioned YAML file so they can change without a redeploy.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Set is the full rule configuration for all predictors.
type Set struct {
	Version    string          `yaml:"version"`
	Objection  ObjectionRules  `yaml:"objection"`
	Needs      NeedsRules      `yaml:"needs"`
	Conversion ConversionRules `yaml:"conversion"`
	Fallback   FallbackRules   `yaml:"fallback"`
}

// ObjectionRules drives the rule-based objection predictor.
type ObjectionRules struct {
	ConfidenceThreshold float64                       `yaml:"confidence_threshold"`
	ContextWindow       int                           `yaml:"context_window"`
	SignalWeights       map[string]float64            `yaml:"signal_weights"`
	SignalKeywords      map[string][]string           `yaml:"signal_keywords"`
	SignalCategories    map[string][]string           `yaml:"signal_categories"`
	ProfileAdjustments  map[string]map[string]float64 `yaml:"profile_adjustments"`
	Responses           map[string][]string           `yaml:"responses"`
}

// NeedsRules drives the rule-based needs predictor.
type NeedsRules struct {
	ConfidenceThreshold float64                       `yaml:"confidence_threshold"`
	ContextWindow       int                           `yaml:"context_window"`
	SignalWeights       map[string]float64            `yaml:"signal_weights"`
	SignalKeywords      map[string][]string           `yaml:"signal_keywords"`
	SignalCategories    map[string][]string           `yaml:"signal_categories"`
	RequestPhrases      []string                      `yaml:"request_phrases"`
	RequestWeight       float64                       `yaml:"request_weight"`
	EntityWeight        float64                       `yaml:"entity_weight"`
	EntityCategories    map[string][]string           `yaml:"entity_categories"`
	ProfileAdjustments  map[string]map[string]float64 `yaml:"profile_adjustments"`
	Actions             map[string][]string           `yaml:"actions"`
}

// ConversionRules drives the rule-based conversion predictor.
type ConversionRules struct {
	ContextWindow   int                `yaml:"context_window"`
	SignalWeights   map[string]float64 `yaml:"signal_weights"`
	BuyingKeywords  []string           `yaml:"buying_keywords"`
	InquiryKeywords []string           `yaml:"inquiry_keywords"`

	HighThreshold   float64 `yaml:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold"`

	ExistingCustomerBonus     float64 `yaml:"existing_customer_bonus"`
	PremiumSegmentBonus       float64 `yaml:"premium_segment_bonus"`
	PriceSensitivePenalty     float64 `yaml:"price_sensitive_penalty"`
	FrequentInteractionsBonus float64 `yaml:"frequent_interactions_bonus"`

	CategoryRecommendations map[string][]Recommendation `yaml:"category_recommendations"`
	DeficiencyTriggers      []DeficiencyTrigger         `yaml:"deficiency_triggers"`
}

// Recommendation is a curated next-step suggestion for the sales agent.
type Recommendation struct {
	Action      string `yaml:"action" json:"action"`
	Priority    string `yaml:"priority" json:"priority"` // "high" | "medium" | "low"
	Description string `yaml:"description" json:"description"`
}

// DeficiencyTrigger adds a recommendation when a signal falls below a floor,
// e.g. low engagement_level recommends asking open questions.
type DeficiencyTrigger struct {
	Signal         string         `yaml:"signal"`
	Below          float64        `yaml:"below"`
	Recommendation Recommendation `yaml:"recommendation"`
}

// FallbackRules back the dependency-free heuristic predictor.
type FallbackRules struct {
	ObjectionThreshold float64                 `yaml:"objection_threshold"`
	NeedThreshold      float64                 `yaml:"need_threshold"`
	Objections         map[string]KeywordRule  `yaml:"objections"`
	Needs              map[string]KeywordRule  `yaml:"needs"`
	Conversion         FallbackConversionRules `yaml:"conversion"`
}

// KeywordRule scores one category by keyword hits.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Weight   float64  `yaml:"weight"`
	Response string   `yaml:"response"`
}

// FallbackConversionRules back the heuristic conversion estimate.
type FallbackConversionRules struct {
	PositiveKeywords []string `yaml:"positive_keywords"`
	NegativeKeywords []string `yaml:"negative_keywords"`
	MediumKeywords   []string `yaml:"medium_keywords"`
	HighThreshold    float64  `yaml:"high_threshold"`
	MediumThreshold  float64  `yaml:"medium_threshold"`

	Recommendations map[string][]Recommendation `yaml:"recommendations"` // keyed by level
}

// Load reads a rule set from the YAML file at path. An empty path returns
// the compiled-in defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var s Set
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules file: %w", err)
	}
	return &s, nil
}

// Validate checks the structural invariants rule authors most often break.
func (s *Set) Validate() error {
	if s.Objection.ConfidenceThreshold <= 0 || s.Objection.ConfidenceThreshold > 1 {
		return fmt.Errorf("objection confidence_threshold %f outside (0,1]", s.Objection.ConfidenceThreshold)
	}
	if s.Needs.ConfidenceThreshold <= 0 || s.Needs.ConfidenceThreshold > 1 {
		return fmt.Errorf("needs confidence_threshold %f outside (0,1]", s.Needs.ConfidenceThreshold)
	}
	if s.Objection.ContextWindow <= 0 || s.Needs.ContextWindow <= 0 {
		return fmt.Errorf("context windows must be positive")
	}
	if s.Conversion.HighThreshold <= s.Conversion.MediumThreshold {
		return fmt.Errorf("conversion high_threshold %f must exceed medium_threshold %f",
			s.Conversion.HighThreshold, s.Conversion.MediumThreshold)
	}
	for signal, cats := range s.Objection.SignalCategories {
		if len(cats) == 0 {
			return fmt.Errorf("objection signal %q maps to no categories", signal)
		}
	}
	for signal, cats := range s.Needs.SignalCategories {
		if len(cats) == 0 {
			return fmt.Errorf("needs signal %q maps to no categories", signal)
		}
	}
	for cat, rule := range s.Fallback.Objections {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("fallback objection %q has no keywords", cat)
		}
	}
	for cat, rule := range s.Fallback.Needs {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("fallback need %q has no keywords", cat)
		}
	}
	return nil
}
