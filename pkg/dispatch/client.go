package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/types"
)

// ErrUnreachable wraps transport and timeout failures: the request never
// produced a response, so the worker did no biometric work
var ErrUnreachable = errors.New("dispatch: worker unreachable")

// WorkerError is a processing failure reported by the worker itself. The
// worker responded, so it may be mid-inference in an unknown state.
type WorkerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker returned %d: %s", e.StatusCode, e.Message)
}

// RequestIDHeader carries the correlation identifier to the worker
const RequestIDHeader = "X-Request-ID"

// Client forwards authentication jobs to worker pods over HTTP
type Client struct {
	httpClient *http.Client
	workerPort int
}

// NewClient creates a dispatch client with a bounded per-request timeout
func NewClient(timeout time.Duration, workerPort int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		workerPort: workerPort,
	}
}

// Authenticate sends the job to the worker and returns its decision.
// Failures are split into ErrUnreachable (no response; the unit is clean)
// and *WorkerError (the unit answered with a processing failure).
func (c *Client) Authenticate(ctx context.Context, unit *types.WorkerUnit, req *types.AuthRequest, requestID string) (*types.AuthResponse, error) {
	if unit.IP == "" {
		return nil, fmt.Errorf("%w: pod %s has no IP", ErrUnreachable, unit.Name)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	url := fmt.Sprintf("http://%s:%d/authenticate", unit.IP, c.workerPort)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	podLog := log.WithPod(unit.Name)
	podLog.Debug().
		Str("url", url).
		Str("request_id", requestID).
		Msg("Dispatching authentication job")

	timer := metrics.NewTimer()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	timer.ObserveDuration(metrics.DispatchDuration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp types.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			errResp.Message = "unknown error"
		}
		return nil, &WorkerError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error,
			Message:    errResp.Message,
		}
	}

	var authResp types.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		// The worker answered but the payload is unusable; the unit is in
		// an unknown state, so classify as a worker failure
		return nil, &WorkerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response body: %v", err),
		}
	}

	return &authResp, nil
}
