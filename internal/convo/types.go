package convo

import (
	"strings"
	"time"
)

// Roles for conversation messages. The customer side of a sales conversation
// is always RoleUser; RoleAssistant is the agent.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// CustomerProfile carries the optional attributes known about the customer.
// Every field may be empty; predictors must work with a nil profile.
type CustomerProfile struct {
	BusinessType      string  `json:"business_type,omitempty"`
	CompanySize       string  `json:"company_size,omitempty"` // "small" | "medium" | "large"
	Budget            float64 `json:"budget,omitempty"`
	Age               int     `json:"age,omitempty"`
	Segment           string  `json:"segment,omitempty"` // e.g. "premium", "price_sensitive"
	Industry          string  `json:"industry,omitempty"`
	PreviousPurchases int     `json:"previous_purchases,omitempty"`
	InteractionCount  int     `json:"interaction_count,omitempty"`
}

// PredictionRequest is the ephemeral per-turn input to every predictor.
type PredictionRequest struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []Message        `json:"messages"`
	Profile        *CustomerProfile `json:"customer_profile,omitempty"`
}

// CustomerMessages returns only the customer-authored messages, in order.
func CustomerMessages(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// LastN returns the trailing window of msgs, at most n long.
func LastN(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// JoinedText concatenates message contents, lowercased, space-separated.
func JoinedText(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, strings.ToLower(m.Content))
	}
	return strings.Join(parts, " ")
}
