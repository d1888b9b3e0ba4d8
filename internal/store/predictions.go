package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Prediction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// PredictionRow is one stored prediction. It is created pending and
// transitions to completed when ground truth arrives.
type PredictionRow struct {
	ID             uuid.UUID
	ModelName      string
	ConversationID string
	PredictionType string
	Payload        json.RawMessage
	Confidence     float64
	Status         string
	ActualResult   json.RawMessage
	WasCorrect     *bool
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// InsertPrediction stores a new pending prediction and returns its id.
func (s *Store) InsertPrediction(ctx context.Context, modelName, conversationID, predictionType string, payload json.RawMessage, confidence float64) (uuid.UUID, error) {
	id := uuid.New()
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO predictions (id, model_name, conversation_id, prediction_type, payload, confidence, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending')`,
			id, modelName, conversationID, predictionType, payload, confidence)
		return err
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert prediction: %w", err)
	}
	return id, nil
}

// LatestPending returns the most recent pending prediction for a
// conversation and model, or ErrNotFound.
func (s *Store) LatestPending(ctx context.Context, modelName, conversationID string) (*PredictionRow, error) {
	var p PredictionRow
	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, model_name, conversation_id, prediction_type, payload, confidence,
			       status, actual_result, was_correct, created_at, completed_at
			FROM predictions
			WHERE model_name = $1 AND conversation_id = $2 AND status = 'pending'
			ORDER BY created_at DESC
			LIMIT 1`, modelName, conversationID)
		err := row.Scan(&p.ID, &p.ModelName, &p.ConversationID, &p.PredictionType, &p.Payload,
			&p.Confidence, &p.Status, &p.ActualResult, &p.WasCorrect, &p.CreatedAt, &p.CompletedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoffPermanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest pending prediction: %w", err)
	}
	return &p, nil
}

// CompletePrediction marks a prediction completed with its actual outcome.
func (s *Store) CompletePrediction(ctx context.Context, id uuid.UUID, actual json.RawMessage, wasCorrect bool) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			UPDATE predictions
			SET status = 'completed', actual_result = $1, was_correct = $2, completed_at = now()
			WHERE id = $3`, actual, wasCorrect, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("complete prediction %s: %w", id, err)
	}
	return nil
}

// GetPrediction fetches a prediction by id.
func (s *Store) GetPrediction(ctx context.Context, id uuid.UUID) (*PredictionRow, error) {
	var p PredictionRow
	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, model_name, conversation_id, prediction_type, payload, confidence,
			       status, actual_result, was_correct, created_at, completed_at
			FROM predictions WHERE id = $1`, id)
		err := row.Scan(&p.ID, &p.ModelName, &p.ConversationID, &p.PredictionType, &p.Payload,
			&p.Confidence, &p.Status, &p.ActualResult, &p.WasCorrect, &p.CreatedAt, &p.CompletedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoffPermanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prediction %s: %w", id, err)
	}
	return &p, nil
}

// PredictionStats summarizes completed predictions for one model.
type PredictionStats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// Stats computes prediction accuracy for a model, optionally windowed to the
// last windowDays days (0 = all time). Accuracy is correct/completed.
func (s *Store) Stats(ctx context.Context, modelName string, windowDays int) (PredictionStats, error) {
	var stats PredictionStats
	since := time.Time{}
	if windowDays > 0 {
		since = time.Now().AddDate(0, 0, -windowDays)
	}
	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT count(*),
			       count(*) FILTER (WHERE status = 'completed'),
			       count(*) FILTER (WHERE status = 'completed' AND was_correct)
			FROM predictions
			WHERE model_name = $1 AND created_at >= $2`, modelName, since)
		return row.Scan(&stats.Total, &stats.Completed, &stats.Correct)
	})
	if err != nil {
		return PredictionStats{}, fmt.Errorf("prediction stats %s: %w", modelName, err)
	}
	if stats.Completed > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.Completed)
	}
	return stats, nil
}
