package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ngx-platform/foresight/internal/convo"
	"github.com/ngx-platform/foresight/internal/store"
)

type predictRequest struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []convo.Message        `json:"messages"`
	Profile        *convo.CustomerProfile `json:"profile,omitempty"`
}

func decodePredictRequest(w http.ResponseWriter, r *http.Request) (predictRequest, bool) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return req, false
	}
	return req, true
}

func (s *Server) predictObjections(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePredictRequest(w, r)
	if !ok {
		return
	}
	result := s.predictor.PredictObjections(r.Context(), req.ConversationID, req.Messages, req.Profile)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) predictNeeds(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePredictRequest(w, r)
	if !ok {
		return
	}
	result := s.predictor.PredictNeeds(r.Context(), req.ConversationID, req.Messages, req.Profile)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) predictConversion(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePredictRequest(w, r)
	if !ok {
		return
	}
	result := s.predictor.PredictConversion(r.Context(), req.ConversationID, req.Messages, req.Profile)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePredictRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.predictor.Insights(r.Context(), req.ConversationID, req.Messages, req.Profile))
}

type outcomeRequest struct {
	ConversationID string `json:"conversation_id"`
	Label          string `json:"label"`
	Text           string `json:"text,omitempty"`
	WasCorrect     bool   `json:"was_correct"`
}

func (s *Server) recordOutcome(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.recorders[chi.URLParam(r, "domain")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown domain")
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.ConversationID == "" || req.Label == "" {
		writeError(w, http.StatusBadRequest, "conversation_id and label are required")
		return
	}

	err := rec.RecordActualResult(r.Context(), req.ConversationID, map[string]any{"label": req.Label}, req.WasCorrect)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "no pending prediction for conversation")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Text != "" {
		if err := rec.AddTrainingData(r.Context(), map[string]any{"text": req.Text}, req.Label); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.recorders[chi.URLParam(r, "domain")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown domain")
		return
	}

	windowDays := 0
	if v := r.URL.Query().Get("window_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		windowDays = n
	}

	stats, err := rec.Statistics(r.Context(), windowDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
