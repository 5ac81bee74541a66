package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridial/faceit/pkg/auth"
	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/types"
)

// Authenticator runs one authentication job end to end
type Authenticator interface {
	Authenticate(ctx context.Context, req *types.AuthRequest) (*types.AuthResponse, error)
}

// PoolProber checks pool visibility for readiness
type PoolProber interface {
	Probe(ctx context.Context) (int, error)
}

// Server is the client-facing API: it validates requests, delegates to the
// authentication orchestrator, and maps the error taxonomy onto HTTP
// statuses.
type Server struct {
	authenticator Authenticator
	prober        PoolProber
	mux           *http.ServeMux
	httpSrv       *http.Server
	logger        zerolog.Logger
}

// NewServer creates an API server over an authenticator and pool prober
func NewServer(authenticator Authenticator, prober PoolProber) *Server {
	mux := http.NewServeMux()
	s := &Server{
		authenticator: authenticator,
		prober:        prober,
		mux:           mux,
		logger:        log.WithComponent("api"),
	}

	// Register endpoints
	mux.HandleFunc("/authenticate", s.authenticateHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start starts the API HTTP server
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the API HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// authenticateHandler implements POST /authenticate
func (s *Server) authenticateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "image_base64 is required")
		return
	}

	resp, err := s.authenticator.Authenticate(r.Context(), &req)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// statusFor maps the orchestrator error taxonomy onto HTTP statuses:
// capacity exhaustion and transport failures are retryable, processing
// failures are not
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrNoCapacity):
		return http.StatusServiceUnavailable, "no_capacity"
	case errors.Is(err, auth.ErrTransport):
		return http.StatusBadGateway, "worker_unreachable"
	case errors.Is(err, auth.ErrProcessing):
		return http.StatusUnprocessableEntity, "processing_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
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

// readyHandler implements the /ready endpoint: ready when the resource
// store answers a pool list. An empty pool is still ready: capacity is a
// per-request signal, not a readiness one.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	idle, err := s.prober.Probe(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Readiness probe failed to reach resource store")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "not ready",
			"timestamp": time.Now(),
			"checks":    map[string]string{"podstore": err.Error()},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
		"checks":    map[string]string{"podstore": fmt.Sprintf("ok (%d idle workers)", idle)},
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
