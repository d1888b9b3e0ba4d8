// Package features assembles the per-conversation feature bundle consumed by
// the rule-based predictors and the model trainer.
package features

import (
	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/signals"
)

// Bundle groups features by origin. Consumers must tolerate any group being
// empty; Get returns 0 for anything missing.
type Bundle struct {
	Message      map[string]float64 `json:"message_features"`
	Conversation map[string]float64 `json:"conversation_features"`
	Customer     map[string]string  `json:"customer_features"`
}

// Get looks a numeric feature up across the message and conversation groups.
func (b Bundle) Get(name string) float64 {
	if v, ok := b.Message[name]; ok {
		return v
	}
	if v, ok := b.Conversation[name]; ok {
		return v
	}
	return 0
}

// CustomerAttr returns a categorical customer attribute or "".
func (b Bundle) CustomerAttr(name string) string {
	return b.Customer[name]
}

// Extract builds the bundle for one conversation turn. Both arguments may be
// empty/nil.
func Extract(msgs []convo.Message, profile *convo.CustomerProfile) Bundle {
	b := Bundle{
		Message:      map[string]float64{},
		Conversation: map[string]float64{},
		Customer:     map[string]string{},
	}

	customer := convo.CustomerMessages(msgs)
	text := convo.JoinedText(customer)

	totalLen := 0
	questions := 0
	for _, m := range customer {
		totalLen += len([]rune(m.Content))
		if signals.CountOccurrences(m.Content, "?") > 0 {
			questions++
		}
	}
	b.Message["customer_message_count"] = float64(len(customer))
	if len(customer) > 0 {
		b.Message["avg_message_length"] = float64(totalLen) / float64(len(customer))
	}
	b.Message["question_count"] = float64(questions)
	b.Message["price_mentioned"] = boolFeature(
		signals.CountOccurrences(text, "precio") > 0 ||
			signals.CountOccurrences(text, "costo") > 0 ||
			signals.CountOccurrences(text, "$") > 0 ||
			signals.CountOccurrences(text, "price") > 0)
	b.Message["comparison_mentioned"] = boolFeature(
		signals.CountOccurrences(text, "comparar") > 0 ||
			signals.CountOccurrences(text, "versus") > 0 ||
			signals.CountOccurrences(text, "vs") > 0 ||
			signals.CountOccurrences(text, "alternativa") > 0)

	b.Conversation["total_message_count"] = float64(len(msgs))
	if len(msgs) > 0 {
		b.Conversation["customer_ratio"] = float64(len(customer)) / float64(len(msgs))
	}

	if profile != nil {
		b.Customer["business_type"] = profile.BusinessType
		b.Customer["company_size"] = profile.CompanySize
		b.Customer["segment"] = profile.Segment
		b.Customer["industry"] = profile.Industry
		b.Conversation["previous_purchases"] = float64(profile.PreviousPurchases)
		b.Conversation["interaction_count"] = float64(profile.InteractionCount)
	}

	return b
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
