package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/predict"
	"github.com/ngx-platform/foresight/internal/store"
	"github.com/ngx-platform/foresight/internal/unified"
)

type stubPredictor struct{}

func (stubPredictor) PredictObjections(_ context.Context, _ string, _ []convo.Message, _ *convo.CustomerProfile) predict.ObjectionResult {
	r := predict.EmptyObjectionResult()
	r.Objections = []predict.ScoredCategory{{Category: "price", Score: 0.9}}
	r.Confidence = 0.9
	return r
}

func (stubPredictor) PredictNeeds(_ context.Context, _ string, _ []convo.Message, _ *convo.CustomerProfile) predict.NeedsResult {
	return predict.EmptyNeedsResult()
}

func (stubPredictor) PredictConversion(_ context.Context, _ string, _ []convo.Message, _ *convo.CustomerProfile) predict.ConversionResult {
	r := predict.EmptyConversionResult()
	r.Probability = 0.42
	r.Category = predict.ConversionMedium
	return r
}

func (stubPredictor) Insights(_ context.Context, conversationID string, _ []convo.Message, _ *convo.CustomerProfile) unified.Insights {
	return unified.Insights{
		ConversationID:    conversationID,
		Phase:             unified.PhaseDiscovery,
		RecommendedAction: unified.Action{Type: "build_value"},
	}
}

type stubRecorder struct {
	recordErr error
	recorded  int
	trained   int
	stats     store.PredictionStats
}

func (s *stubRecorder) RecordActualResult(context.Context, string, any, bool) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded++
	return nil
}

func (s *stubRecorder) AddTrainingData(context.Context, any, string) error {
	s.trained++
	return nil
}

func (s *stubRecorder) Statistics(context.Context, int) (store.PredictionStats, error) {
	return s.stats, nil
}

func newTestServer(token string, rec Recorder) *Server {
	return NewServer(8760, token, stubPredictor{}, map[string]Recorder{"objection": rec})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer("", &stubRecorder{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestPredictObjectionsEndpoint(t *testing.T) {
	srv := newTestServer("", &stubRecorder{})

	payload := `{"conversation_id":"c1","messages":[{"role":"user","content":"es caro"}]}`
	req := httptest.NewRequest("POST", "/api/v1/predict/objections", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body predict.ObjectionResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Objections) != 1 || body.Objections[0].Category != "price" {
		t.Errorf("unexpected objections: %v", body.Objections)
	}
}

func TestPredictRequiresConversationID(t *testing.T) {
	srv := newTestServer("", &stubRecorder{})

	req := httptest.NewRequest("POST", "/api/v1/predict/needs", strings.NewReader(`{"messages":[]}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newTestServer("", &stubRecorder{})

	payload := `{"conversation_id":"c7","messages":[]}`
	req := httptest.NewRequest("POST", "/api/v1/insights", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body unified.Insights
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ConversationID != "c7" || body.RecommendedAction.Type != "build_value" {
		t.Errorf("unexpected insights: %+v", body)
	}
}

func TestRecordOutcome(t *testing.T) {
	rec := &stubRecorder{}
	srv := newTestServer("", rec)

	payload := `{"conversation_id":"c1","label":"price","text":"es caro","was_correct":true}`
	req := httptest.NewRequest("POST", "/api/v1/outcomes/objection", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rec.recorded != 1 || rec.trained != 1 {
		t.Errorf("recorded=%d trained=%d, want 1 and 1", rec.recorded, rec.trained)
	}
}

func TestRecordOutcome_UnknownDomain(t *testing.T) {
	srv := newTestServer("", &stubRecorder{})

	payload := `{"conversation_id":"c1","label":"price"}`
	req := httptest.NewRequest("POST", "/api/v1/outcomes/sentiment", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRecordOutcome_NoPendingPrediction(t *testing.T) {
	srv := newTestServer("", &stubRecorder{recordErr: store.ErrNotFound})

	payload := `{"conversation_id":"c1","label":"price"}`
	req := httptest.NewRequest("POST", "/api/v1/outcomes/objection", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	rec := &stubRecorder{stats: store.PredictionStats{Total: 10, Completed: 4, Correct: 3, Accuracy: 0.75}}
	srv := newTestServer("", rec)

	req := httptest.NewRequest("GET", "/api/v1/stats/objection?window_days=30", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body store.PredictionStats
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Accuracy != 0.75 {
		t.Errorf("accuracy = %f, want 0.75", body.Accuracy)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer("sekrit", &stubRecorder{})

	req := httptest.NewRequest("GET", "/api/v1/stats/objection", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/stats/objection", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}

	// Health stays open for probes.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}
}
