package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a model or prediction does not exist.
var ErrNotFound = errors.New("not found")

// ModelRow is a registered predictive model.
type ModelRow struct {
	Name            string
	ModelType       string // "objection" | "needs" | "conversion"
	Parameters      json.RawMessage
	Description     string
	Status          string
	Version         int
	Accuracy        float64
	TrainingSamples int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GetModel fetches a model by name. Returns ErrNotFound if absent.
func (s *Store) GetModel(ctx context.Context, name string) (*ModelRow, error) {
	var m ModelRow
	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT name, model_type, parameters, description, status, version,
			       accuracy, training_samples, created_at, updated_at
			FROM predictive_models WHERE name = $1`, name)
		err := row.Scan(&m.Name, &m.ModelType, &m.Parameters, &m.Description, &m.Status,
			&m.Version, &m.Accuracy, &m.TrainingSamples, &m.CreatedAt, &m.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoffPermanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get model %s: %w", name, err)
	}
	return &m, nil
}

// CreateModel registers a new model. Fails if the name is taken.
func (s *Store) CreateModel(ctx context.Context, name, modelType string, params json.RawMessage, description string) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO predictive_models (name, model_type, parameters, description)
			VALUES ($1, $2, $3, $4)`,
			name, modelType, params, description)
		return err
	})
	if err != nil {
		return fmt.Errorf("create model %s: %w", name, err)
	}
	return nil
}

// UpdateModelParameters replaces a model's parameter blob and bumps its
// version. This is the explicit update path; InitializeModel never overwrites.
func (s *Store) UpdateModelParameters(ctx context.Context, name string, params json.RawMessage) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			UPDATE predictive_models
			SET parameters = $1, version = version + 1, updated_at = now()
			WHERE name = $2`, params, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("update model parameters %s: %w", name, err)
	}
	return nil
}

// UpdateModelAccuracy records a retraining result.
func (s *Store) UpdateModelAccuracy(ctx context.Context, name string, accuracy float64, trainingSamples int) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			UPDATE predictive_models
			SET accuracy = $1, training_samples = $2, updated_at = now()
			WHERE name = $3`, accuracy, trainingSamples, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("update model accuracy %s: %w", name, err)
	}
	return nil
}

// DeleteModel removes a model. Not exercised by the prediction path; exists
// for operational cleanup.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `DELETE FROM predictive_models WHERE name = $1`, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete model %s: %w", name, err)
	}
	return nil
}
