// Package predict implements the predictive scoring subsystem: the shared
// base service, the rule-based domain predictors (objection, needs,
// conversion), and the dependency-free fallback predictor.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngx-platform/foresight/internal/metrics"
	"github.com/ngx-platform/foresight/internal/store"
)

// Persistence is the slice of the store the base service consumes.
// *store.Store satisfies it; tests use fakes.
type Persistence interface {
	GetModel(ctx context.Context, name string) (*store.ModelRow, error)
	CreateModel(ctx context.Context, name, modelType string, params json.RawMessage, description string) error
	InsertPrediction(ctx context.Context, modelName, conversationID, predictionType string, payload json.RawMessage, confidence float64) (uuid.UUID, error)
	LatestPending(ctx context.Context, modelName, conversationID string) (*store.PredictionRow, error)
	CompletePrediction(ctx context.Context, id uuid.UUID, actual json.RawMessage, wasCorrect bool) error
	Stats(ctx context.Context, modelName string, windowDays int) (store.PredictionStats, error)
	InsertTrainingSample(ctx context.Context, modelName, dataType string, feats json.RawMessage, label string) error
}

// ParamsCache is the optional read-through cache for model parameters.
type ParamsCache interface {
	GetModelParams(ctx context.Context, modelName string) ([]byte, bool)
	SetModelParams(ctx context.Context, modelName string, params []byte)
}

// Announcer is notified after a prediction row is stored, so other services
// can react to fresh predictions. Optional; may be nil.
type Announcer interface {
	PredictionStored(modelName, conversationID string, id uuid.UUID, confidence float64)
}

// Service is the persistence contract shared by the domain predictors: model
// registration, prediction storage, outcome recording, and statistics.
type Service struct {
	modelName string
	modelType string
	db        Persistence
	cache     ParamsCache // may be nil
	announce  Announcer   // may be nil
	logger    *slog.Logger
}

func NewService(modelName, modelType string, db Persistence, cache ParamsCache, announce Announcer, logger *slog.Logger) *Service {
	return &Service{
		modelName: modelName,
		modelType: modelType,
		db:        db,
		cache:     cache,
		announce:  announce,
		logger:    logger,
	}
}

// ModelName returns the persisted model key this service manages.
func (s *Service) ModelName() string { return s.modelName }

// InitializeModel registers the model if it does not exist yet. Repeated
// calls are no-ops: existing parameters are never overwritten here, parameter
// changes go through the store's explicit update path.
func (s *Service) InitializeModel(ctx context.Context, params any, description string) error {
	_, err := s.db.GetModel(ctx, s.modelName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check model %s: %w", s.modelName, err)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal model params: %w", err)
	}
	if err := s.db.CreateModel(ctx, s.modelName, s.modelType, raw, description); err != nil {
		return fmt.Errorf("register model %s: %w", s.modelName, err)
	}
	s.logger.Info("model registered", "model", s.modelName, "type", s.modelType)
	return nil
}

// ModelParameters fetches the parameter blob, through the cache when one is
// configured.
func (s *Service) ModelParameters(ctx context.Context) (json.RawMessage, error) {
	if s.cache != nil {
		if raw, ok := s.cache.GetModelParams(ctx, s.modelName); ok {
			return raw, nil
		}
	}
	m, err := s.db.GetModel(ctx, s.modelName)
	if err != nil {
		return nil, fmt.Errorf("model parameters %s: %w", s.modelName, err)
	}
	if len(m.Parameters) == 0 {
		return nil, fmt.Errorf("model %s has no parameters", s.modelName)
	}
	if s.cache != nil {
		s.cache.SetModelParams(ctx, s.modelName, m.Parameters)
	}
	return m.Parameters, nil
}

// ConfidenceThreshold returns the tuned threshold from the model registry
// when one is set, falling back to the compiled-in rule value. Registry
// reads go through the parameter cache.
func (s *Service) ConfidenceThreshold(ctx context.Context, fallback float64) float64 {
	raw, err := s.ModelParameters(ctx)
	if err != nil {
		return fallback
	}
	var params struct {
		ConfidenceThreshold float64 `json:"confidence_threshold"`
	}
	if json.Unmarshal(raw, &params) != nil || params.ConfidenceThreshold <= 0 || params.ConfidenceThreshold > 1 {
		return fallback
	}
	return params.ConfidenceThreshold
}

// StorePrediction persists one pending prediction. Failures are logged and
// swallowed: a storage outage must not break the conversation turn.
func (s *Service) StorePrediction(ctx context.Context, conversationID, predictionType string, payload any, confidence float64) uuid.UUID {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal prediction payload", "model", s.modelName, "error", err)
		metrics.PredictionErrors.WithLabelValues(s.modelType).Inc()
		return uuid.Nil
	}
	id, err := s.db.InsertPrediction(ctx, s.modelName, conversationID, predictionType, raw, confidence)
	if err != nil {
		s.logger.Error("store prediction", "model", s.modelName, "conversation", conversationID, "error", err)
		metrics.PredictionErrors.WithLabelValues(s.modelType).Inc()
		return uuid.Nil
	}
	if s.announce != nil {
		s.announce.PredictionStored(s.modelName, conversationID, id, confidence)
	}
	return id
}

// RecordActualResult completes the most recent pending prediction for the
// conversation with its ground truth. Returns store.ErrNotFound when no
// pending prediction exists.
func (s *Service) RecordActualResult(ctx context.Context, conversationID string, actual any, wasCorrect bool) error {
	pending, err := s.db.LatestPending(ctx, s.modelName, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("find pending prediction: %w", err)
	}
	raw, err := json.Marshal(actual)
	if err != nil {
		return fmt.Errorf("marshal actual result: %w", err)
	}
	if err := s.db.CompletePrediction(ctx, pending.ID, raw, wasCorrect); err != nil {
		return fmt.Errorf("complete prediction: %w", err)
	}
	metrics.OutcomesRecorded.WithLabelValues(s.modelType, fmt.Sprintf("%t", wasCorrect)).Inc()
	return nil
}

// Statistics reports accuracy over completed predictions, optionally
// windowed to the last windowDays days.
func (s *Service) Statistics(ctx context.Context, windowDays int) (store.PredictionStats, error) {
	return s.db.Stats(ctx, s.modelName, windowDays)
}

// AddTrainingData persists one labeled live sample for future retraining.
func (s *Service) AddTrainingData(ctx context.Context, feats any, label string) error {
	raw, err := json.Marshal(feats)
	if err != nil {
		return fmt.Errorf("marshal training features: %w", err)
	}
	if err := s.db.InsertTrainingSample(ctx, s.modelName, "live", raw, label); err != nil {
		return fmt.Errorf("add training data: %w", err)
	}
	return nil
}
