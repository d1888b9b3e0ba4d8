package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// OutcomeEvent is the ground-truth signal published by the conversation
// orchestrator once a predicted situation resolves. Label is the category
// that actually occurred; Text carries the customer utterance that settled
// it, which feeds retraining.
type OutcomeEvent struct {
	ConversationID string `json:"conversation_id"`
	Label          string `json:"label"`
	Text           string `json:"text,omitempty"`
	WasCorrect     bool   `json:"was_correct"`
}

// Recorder is the slice of the base predictive service the outcome loop
// needs: completing pending predictions and accumulating training data.
type Recorder interface {
	ModelName() string
	RecordActualResult(ctx context.Context, conversationID string, actual any, wasCorrect bool) error
	AddTrainingData(ctx context.Context, feats any, label string) error
}

// Outcomes routes outcome events from the bus to the matching domain
// recorder.
type Outcomes struct {
	objection  Recorder
	needs      Recorder
	conversion Recorder
	logger     *slog.Logger
}

func NewOutcomes(objection, needs, conversion Recorder, logger *slog.Logger) *Outcomes {
	return &Outcomes{objection: objection, needs: needs, conversion: conversion, logger: logger}
}

// Register subscribes the handlers on the bus.
func (o *Outcomes) Register(c *Client) error {
	if err := c.Subscribe(SubjectObjectionOutcome, o.handlerFor(o.objection)); err != nil {
		return err
	}
	if err := c.Subscribe(SubjectNeedOutcome, o.handlerFor(o.needs)); err != nil {
		return err
	}
	return c.Subscribe(SubjectConversionOutcome, o.handlerFor(o.conversion))
}

func (o *Outcomes) handlerFor(rec Recorder) func(subject string, data []byte) {
	return func(subject string, data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		o.handle(ctx, rec, subject, data)
	}
}

func (o *Outcomes) handle(ctx context.Context, rec Recorder, subject string, data []byte) {
	var ev OutcomeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		o.logger.Warn("malformed outcome event", "subject", subject, "error", err)
		return
	}
	if ev.ConversationID == "" || ev.Label == "" {
		o.logger.Warn("incomplete outcome event", "subject", subject)
		return
	}

	actual := map[string]any{"label": ev.Label}
	if err := rec.RecordActualResult(ctx, ev.ConversationID, actual, ev.WasCorrect); err != nil {
		// No pending prediction is normal when the orchestrator reports
		// an outcome the predictors never scored.
		o.logger.Debug("record outcome skipped",
			"model", rec.ModelName(), "conversation_id", ev.ConversationID, "error", err)
	}

	if ev.Text != "" {
		if err := rec.AddTrainingData(ctx, map[string]any{"text": ev.Text}, ev.Label); err != nil {
			o.logger.Warn("store training sample failed",
				"model", rec.ModelName(), "error", err)
		}
	}
}
