package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/faceit/pkg/auth"
	"github.com/veridial/faceit/pkg/types"
)

type fakeAuthenticator struct {
	resp *types.AuthResponse
	err  error
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, req *types.AuthRequest) (*types.AuthResponse, error) {
	return f.resp, f.err
}

type fakeProber struct {
	idle int
	err  error
}

func (f *fakeProber) Probe(ctx context.Context) (int, error) {
	return f.idle, f.err
}

func postAuth(t *testing.T, s *Server, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/authenticate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.authenticateHandler(w, req)
	return w
}

// TestAuthenticateEndpointSuccess tests a matched decision passthrough
func TestAuthenticateEndpointSuccess(t *testing.T) {
	s := NewServer(&fakeAuthenticator{resp: &types.AuthResponse{
		Matched: true, UserID: "user1", UserName: "User One", Confidence: 0.95, DurationMs: 42,
	}}, &fakeProber{})

	body, _ := json.Marshal(types.AuthRequest{ImageBase64: "aW1hZ2U="})
	w := postAuth(t, s, body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Matched)
	assert.Equal(t, "user1", resp.UserID)
	assert.Equal(t, int64(42), resp.DurationMs)
}

// TestAuthenticateEndpointErrorMapping tests the error taxonomy to HTTP
// status mapping
func TestAuthenticateEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "no capacity",
			err:            fmt.Errorf("%w: pool empty", auth.ErrNoCapacity),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "no_capacity",
		},
		{
			name:           "worker unreachable",
			err:            fmt.Errorf("%w: timeout", auth.ErrTransport),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "worker_unreachable",
		},
		{
			name:           "processing failed",
			err:            fmt.Errorf("%w: bad image", auth.ErrProcessing),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "processing_failed",
		},
		{
			name:           "store failure",
			err:            errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&fakeAuthenticator{err: tt.err}, &fakeProber{})

			body, _ := json.Marshal(types.AuthRequest{ImageBase64: "aW1hZ2U="})
			w := postAuth(t, s, body)

			require.Equal(t, tt.expectedStatus, w.Code)

			var errResp types.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.Equal(t, tt.expectedCode, errResp.Error)
		})
	}
}

// TestAuthenticateEndpointMissingImage tests input validation
func TestAuthenticateEndpointMissingImage(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{})

	body, _ := json.Marshal(types.AuthRequest{})
	w := postAuth(t, s, body)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp types.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	assert.Equal(t, "invalid_input", errResp.Error)
}

// TestAuthenticateEndpointInvalidJSON tests a malformed body
func TestAuthenticateEndpointInvalidJSON(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{})

	w := postAuth(t, s, []byte("{broken"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAuthenticateEndpointMethodNotAllowed tests the method guard
func TestAuthenticateEndpointMethodNotAllowed(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{})

	req := httptest.NewRequest(http.MethodGet, "/authenticate", nil)
	w := httptest.NewRecorder()
	s.authenticateHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestHealthEndpoint tests the /health endpoint
func TestHealthEndpoint(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.healthHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestReadyEndpoint tests readiness against a reachable store
func TestReadyEndpoint(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{idle: 3})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	s.readyHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Contains(t, resp.Checks["podstore"], "3 idle")
}

// TestReadyEndpointStoreDown tests readiness when the store is unreachable
func TestReadyEndpointStoreDown(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	s.readyHandler(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// TestReadyEndpointEmptyPoolStillReady tests that zero idle workers does
// not fail readiness
func TestReadyEndpointEmptyPoolStillReady(t *testing.T) {
	s := NewServer(&fakeAuthenticator{}, &fakeProber{idle: 0})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	s.readyHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
