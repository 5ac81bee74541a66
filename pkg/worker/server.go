package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridial/faceit/pkg/dispatch"
	"github.com/veridial/faceit/pkg/encoder"
	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/match"
	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/types"
)

// Server is the worker process: it owns the enrolled template database and
// the face encoder, and serves one authentication endpoint plus health and
// readiness probes.
type Server struct {
	db      *match.Database
	encoder encoder.Encoder
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  zerolog.Logger
}

// NewServer creates a worker server over a template database and encoder
func NewServer(db *match.Database, enc encoder.Encoder) *Server {
	mux := http.NewServeMux()
	s := &Server{
		db:      db,
		encoder: enc,
		mux:     mux,
		logger:  log.WithComponent("worker"),
	}

	// Register endpoints
	mux.HandleFunc("/authenticate", s.authenticateHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start starts the worker HTTP server
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().
		Str("addr", addr).
		Int("templates", s.db.Count()).
		Msg("Worker listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the worker HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// authenticateHandler implements POST /authenticate: decode the image,
// produce an embedding, and scan the template set for a match
func (s *Server) authenticateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	requestID := r.Header.Get(dispatch.RequestIDHeader)
	logger := s.logger.With().Str("request_id", requestID).Logger()

	var req types.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("invalid base64 image: %v", err))
		return
	}

	embedding, err := s.encoder.Encode(imageData)
	if err != nil {
		logger.Warn().Err(err).Msg("Embedding extraction failed")
		writeError(w, http.StatusUnprocessableEntity, "encoding_failed", fmt.Sprintf("failed to produce embedding: %v", err))
		return
	}

	decision, err := s.db.Match(embedding)
	if err != nil {
		// Dimension mismatch between encoder and templates is a
		// deployment fault, not a client one
		logger.Error().Err(err).Msg("Similarity scan failed")
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	resp := types.AuthResponse{
		Matched:    decision.Matched,
		UserID:     decision.UserID,
		UserName:   decision.UserName,
		Confidence: decision.Confidence,
		DurationMs: time.Since(start).Milliseconds(),
	}

	logger.Info().
		Bool("matched", resp.Matched).
		Float32("confidence", resp.Confidence).
		Msg("Authentication decision")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// healthHandler implements the /health endpoint, a simple liveness check
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// readyHandler implements the /ready endpoint: the worker is ready once
// its template set is loaded
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := map[string]string{
		"templates": fmt.Sprintf("ok (%d loaded)", s.db.Count()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
		"checks":    checks,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorResponse{
		Error:   code,
		Message: message,
	})
}
