// Package store persists model records, predictions, and training data to
// Postgres. Transient failures are retried with exponential backoff so a
// flaky managed database does not surface as prediction errors.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// withRetry runs op with exponential backoff, at most 3 retries, bounded by
// ctx. Every store operation goes through it.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
}

// backoffPermanent marks an error as non-retryable, e.g. a missing row.
func backoffPermanent(err error) error {
	return backoff.Permanent(err)
}

// EnsureSchema creates the tables this service owns if they do not exist.
// Safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS predictive_models (
			name             text PRIMARY KEY,
			model_type       text NOT NULL,
			parameters       jsonb NOT NULL DEFAULT '{}'::jsonb,
			description      text NOT NULL DEFAULT '',
			status           text NOT NULL DEFAULT 'active',
			version          int NOT NULL DEFAULT 1,
			accuracy         double precision NOT NULL DEFAULT 0,
			training_samples int NOT NULL DEFAULT 0,
			created_at       timestamptz NOT NULL DEFAULT now(),
			updated_at       timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS predictions (
			id              uuid PRIMARY KEY,
			model_name      text NOT NULL REFERENCES predictive_models(name),
			conversation_id text NOT NULL,
			prediction_type text NOT NULL,
			payload         jsonb NOT NULL,
			confidence      double precision NOT NULL,
			status          text NOT NULL DEFAULT 'pending',
			actual_result   jsonb,
			was_correct     boolean,
			created_at      timestamptz NOT NULL DEFAULT now(),
			completed_at    timestamptz
		);
		CREATE INDEX IF NOT EXISTS predictions_conversation_idx
			ON predictions (conversation_id, model_name, created_at DESC);

		CREATE TABLE IF NOT EXISTS training_data (
			id              uuid PRIMARY KEY,
			model_name      text NOT NULL,
			data_type       text NOT NULL,
			features        jsonb NOT NULL,
			label           text NOT NULL,
			used_in_training boolean NOT NULL DEFAULT false,
			created_at      timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS training_data_model_idx
			ON training_data (model_name, used_in_training);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
