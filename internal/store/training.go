package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TrainingSample is one labeled example accumulated for retraining.
type TrainingSample struct {
	ID             uuid.UUID
	ModelName      string
	DataType       string // "synthetic" | "live"
	Features       json.RawMessage
	Label          string
	UsedInTraining bool
	CreatedAt      time.Time
}

// InsertTrainingSample stores one labeled sample.
func (s *Store) InsertTrainingSample(ctx context.Context, modelName, dataType string, feats json.RawMessage, label string) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO training_data (id, model_name, data_type, features, label)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), modelName, dataType, feats, label)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert training sample: %w", err)
	}
	return nil
}

// TrainingSamples returns up to limit samples for a model, oldest first.
// Pass onlyUnused to restrict to samples not yet consumed by training.
func (s *Store) TrainingSamples(ctx context.Context, modelName string, onlyUnused bool, limit int) ([]TrainingSample, error) {
	if limit <= 0 {
		limit = 10000
	}
	var samples []TrainingSample
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT id, model_name, data_type, features, label, used_in_training, created_at
			FROM training_data
			WHERE model_name = $1 AND ($2 = false OR used_in_training = false)
			ORDER BY created_at ASC
			LIMIT $3`, modelName, onlyUnused, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		samples = samples[:0]
		for rows.Next() {
			var t TrainingSample
			if err := rows.Scan(&t.ID, &t.ModelName, &t.DataType, &t.Features, &t.Label, &t.UsedInTraining, &t.CreatedAt); err != nil {
				return err
			}
			samples = append(samples, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("training samples %s: %w", modelName, err)
	}
	return samples, nil
}

// MarkSamplesUsed flags samples as consumed by a training run.
func (s *Store) MarkSamplesUsed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			UPDATE training_data SET used_in_training = true WHERE id = ANY($1)`, ids)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark samples used: %w", err)
	}
	return nil
}
