package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/predict"
	"github.com/ngx-platform/foresight/internal/store"
	"github.com/ngx-platform/foresight/internal/unified"
)

// Predictor is the unified prediction surface the API exposes.
type Predictor interface {
	PredictObjections(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ObjectionResult
	PredictNeeds(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.NeedsResult
	PredictConversion(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) predict.ConversionResult
	Insights(ctx context.Context, conversationID string, msgs []convo.Message, profile *convo.CustomerProfile) unified.Insights
}

// Recorder closes the feedback loop and reports statistics for one domain.
type Recorder interface {
	RecordActualResult(ctx context.Context, conversationID string, actual any, wasCorrect bool) error
	AddTrainingData(ctx context.Context, feats any, label string) error
	Statistics(ctx context.Context, windowDays int) (store.PredictionStats, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	predictor Predictor
	recorders map[string]Recorder
}

func NewServer(port int, apiToken string, predictor Predictor, recorders map[string]Recorder) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		predictor: predictor,
		recorders: recorders,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if apiToken != "" {
			r.Use(bearerAuth(apiToken))
		}
		r.Post("/predict/objections", s.predictObjections)
		r.Post("/predict/needs", s.predictNeeds)
		r.Post("/predict/conversion", s.predictConversion)
		r.Post("/insights", s.insights)
		r.Post("/outcomes/{domain}", s.recordOutcome)
		r.Get("/stats/{domain}", s.stats)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
