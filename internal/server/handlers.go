package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/pipeline"
	"github.com/motivai/motivai-engine/internal/store"
)

func (s *Server) registerHandlers(mux *http.ServeMux) {
	// Operational endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/info", s.handleInfo)
	mux.Handle("/metrics", promhttp.Handler())

	// Generation endpoints, rate limited per client because each run fans
	// out into several model calls.
	generate := s.handleGenerateLetter
	analyzeCV := s.handleAnalyzeCV
	if s.limiter != nil {
		generate = s.limiter.Wrap(generate)
		analyzeCV = s.limiter.Wrap(analyzeCV)
	}
	mux.HandleFunc("/api/v1/letters/generate", generate)
	mux.HandleFunc("/api/v1/letters", s.handleListLetters)
	mux.HandleFunc("/api/v1/letters/", s.handleGetLetter)
	mux.HandleFunc("/api/v1/cv/analyze", analyzeCV)
	mux.HandleFunc("/api/v1/insights", s.handleInsights)

	// Analytics endpoints
	mux.HandleFunc("/api/v1/analytics/realtime", s.handleRealtimeStats)
	mux.HandleFunc("/api/v1/analytics/system", s.handleSystemMetrics)
	mux.HandleFunc("/ws/analytics", s.handleAnalyticsWS)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// writeInternalError keeps the client-visible message generic; upstream and
// storage error text (which can embed raw provider payloads) goes only to
// the diagnostic field and the log.
func (s *Server) writeInternalError(w http.ResponseWriter, message string, err error) {
	s.logger.Error(message, zap.Error(err))
	s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success":    false,
		"message":    message,
		"diagnostic": err.Error(),
	})
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses:
// bad input is the client's fault, everything else is a failed run. The
// diagnostic carries the interrupted state for operators; message stays
// generic for clients.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	s.writeInternalError(w, "generation failed", err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ready":  false,
			"reason": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":          "motivai-engine",
		"version":       Version,
		"llm_provider":  s.model.Provider(),
		"llm_model":     s.model.Model(),
		"cache_enabled": !s.config.Cache.Disabled,
	})
}

// artifactResponse is an artifact plus the success flag, flattened.
type artifactResponse struct {
	Success bool `json:"success"`
	*pipeline.Artifact
}

func (s *Server) handleGenerateLetter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	artifact, err := s.orchestrator.GenerateLetter(r.Context(), req)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, artifactResponse{Success: true, Artifact: artifact})
}

func (s *Server) handleGetLetter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/letters/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusBadRequest, "missing letter id")
		return
	}

	artifact, err := s.orchestrator.GetArtifact(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "letter not found")
		return
	}
	if err != nil {
		s.writeInternalError(w, "letter lookup failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, artifactResponse{Success: true, Artifact: artifact})
}

func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := s.store.ListArtifacts(r.Context(), userID, limit, offset)
	if err != nil {
		s.writeInternalError(w, "letter listing failed", err)
		return
	}
	if records == nil {
		records = []*store.ArtifactRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"letters": records,
		"count":   len(records),
	})
}

func (s *Server) handleAnalyzeCV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pipeline.CVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	artifact, err := s.orchestrator.AnalyzeCV(r.Context(), req)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, artifactResponse{Success: true, Artifact: artifact})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	res, err := s.orchestrator.MarketInsights(r.Context(), day)
	if err != nil {
		s.writeInternalError(w, "insights generation failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": res.Value,
		"degraded": res.Degraded,
	})
}

func (s *Server) handleRealtimeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   s.aggregator.CurrentStats(r.Context()),
	})
}

func (s *Server) handleSystemMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"system":  s.aggregator.SystemStatus(r.Context()),
	})
}
