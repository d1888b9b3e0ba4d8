package events

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Announcer publishes a notification on the bus each time a prediction row
// is stored. It satisfies the predictive service's announce hook.
type Announcer struct {
	c      *Client
	logger *slog.Logger
}

func NewAnnouncer(c *Client, logger *slog.Logger) *Announcer {
	return &Announcer{c: c, logger: logger}
}

// PredictionStored publishes the stored-prediction event. Publish failures
// are logged and dropped; the prediction itself is already persisted.
func (a *Announcer) PredictionStored(modelName, conversationID string, id uuid.UUID, confidence float64) {
	err := a.c.Publish(SubjectPredictionStored, map[string]any{
		"model":           modelName,
		"conversation_id": conversationID,
		"prediction_id":   id.String(),
		"confidence":      confidence,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Warn("publish stored prediction failed", "model", modelName, "error", err)
	}
}
