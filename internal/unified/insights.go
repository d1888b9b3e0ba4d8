package unified

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/predict"
)

// Conversation phases derived from message count and conversion probability.
const (
	PhaseDiscovery  = "discovery"
	PhaseEvaluation = "evaluation"
	PhaseClosing    = "closing"
	PhaseNurturing  = "nurturing"
)

// Action is the single top-level next step distilled from all three
// domains.
type Action struct {
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Insights is the combined three-domain view of one conversation turn.
type Insights struct {
	ConversationID    string                   `json:"conversation_id"`
	Objections        predict.ObjectionResult  `json:"objections"`
	Needs             predict.NeedsResult      `json:"needs"`
	Conversion        predict.ConversionResult `json:"conversion"`
	Phase             string                   `json:"conversation_phase"`
	RecommendedAction Action                   `json:"recommended_action"`
}

// Insights runs the three domain predictions concurrently and derives the
// conversation phase and one recommended action.
func (s *Service) Insights(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) Insights {
	out := Insights{ConversationID: conversationID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Objections = s.PredictObjections(gctx, conversationID, msgs, profile)
		return nil
	})
	g.Go(func() error {
		out.Needs = s.PredictNeeds(gctx, conversationID, msgs, profile)
		return nil
	})
	g.Go(func() error {
		out.Conversion = s.PredictConversion(gctx, conversationID, msgs, profile)
		return nil
	})
	// Predictors convert failures to empty results, so Wait never errors.
	_ = g.Wait()

	out.Phase = phase(len(msgs), out.Conversion.Probability)
	out.RecommendedAction = s.topAction(out)
	return out
}

// phase classifies where the conversation stands. A high conversion
// probability wins regardless of length; otherwise length decides.
func phase(messageCount int, conversionProbability float64) string {
	switch {
	case conversionProbability > 0.7:
		return PhaseClosing
	case messageCount < 6:
		return PhaseDiscovery
	case messageCount <= 20:
		return PhaseEvaluation
	default:
		return PhaseNurturing
	}
}

// topAction picks one next step by precedence: a confident objection first,
// then an unexplored need while still in discovery, then closing when the
// probability supports it, and value building as the default.
func (s *Service) topAction(in Insights) Action {
	if len(in.Objections.Objections) > 0 && in.Objections.Confidence >= objectionCutoff {
		top := in.Objections.Objections[0]
		a := Action{Type: "address_objection", Category: top.Category}
		if len(top.Responses) > 0 {
			a.Description = top.Responses[0]
		}
		return a
	}

	if in.Phase == PhaseDiscovery && len(in.Needs.Needs) > 0 {
		top := in.Needs.Needs[0]
		a := Action{Type: "explore_need", Category: top.Category}
		if len(top.Responses) > 0 {
			a.Description = top.Responses[0]
		}
		return a
	}

	if in.Conversion.Probability > 0.7 {
		return Action{Type: "propose_close", Description: "Proponer el cierre: la probabilidad de conversión es alta."}
	}

	return Action{Type: "build_value", Description: "Reforzar la propuesta de valor antes de avanzar."}
}
