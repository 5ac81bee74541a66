package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veridial/faceit/pkg/dispatch"
	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/pool"
	"github.com/veridial/faceit/pkg/types"
)

var (
	// ErrNoCapacity means no worker could be claimed for this job. The
	// caller may retry with backoff; nothing was acquired, nothing needs
	// cleanup.
	ErrNoCapacity = errors.New("auth: no worker capacity")

	// ErrTransport means the acquired worker never answered. The job can
	// be retried; the worker was released back to the pool untouched.
	ErrTransport = errors.New("auth: worker dispatch failed")

	// ErrProcessing means the worker answered with a processing failure.
	// Retrying the same input will not help.
	ErrProcessing = errors.New("auth: worker processing failed")
)

// compensationTimeout bounds the Release/Dispose patch issued after the
// dispatch outcome is known
const compensationTimeout = 10 * time.Second

// compensationContext detaches from the request context so a caller
// timeout or disconnect during dispatch cannot abort the disposition
// patch and leak the pod as busy
func compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

// Coordinator is the slice of the pool the orchestrator drives
type Coordinator interface {
	Acquire(ctx context.Context) (*types.WorkerUnit, error)
	Release(ctx context.Context, unit *types.WorkerUnit) error
	Dispose(ctx context.Context, unit *types.WorkerUnit) error
}

// Dispatcher forwards a job to an acquired worker
type Dispatcher interface {
	Authenticate(ctx context.Context, unit *types.WorkerUnit, req *types.AuthRequest, requestID string) (*types.AuthResponse, error)
}

// Orchestrator runs the per-request state machine:
//
//	Start -> Acquiring -> Dispatching -> {Completed | Compensating}
//
// Its core correctness property: every acquired worker sees exactly one of
// Dispose or Release, on exactly one terminal path.
type Orchestrator struct {
	coordinator Coordinator
	dispatcher  Dispatcher
}

// New creates an orchestrator over a pool coordinator and a dispatcher
func New(coordinator Coordinator, dispatcher Dispatcher) *Orchestrator {
	return &Orchestrator{
		coordinator: coordinator,
		dispatcher:  dispatcher,
	}
}

// Authenticate runs one job end to end
func (o *Orchestrator) Authenticate(ctx context.Context, req *types.AuthRequest) (*types.AuthResponse, error) {
	start := time.Now()
	requestID := uuid.New().String()
	logger := log.WithRequestID(requestID)

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AuthRequestDuration)

	// Acquiring
	unit, err := o.coordinator.Acquire(ctx)
	if err != nil {
		if errors.Is(err, pool.ErrNoIdleWorkers) || errors.Is(err, pool.ErrPoolContended) {
			logger.Warn().Err(err).Msg("No worker capacity for request")
			metrics.AuthRequestsTotal.WithLabelValues("capacity").Inc()
			return nil, fmt.Errorf("%w: %v", ErrNoCapacity, err)
		}
		metrics.AuthRequestsTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to acquire worker: %w", err)
	}

	logger.Info().Str("pod", unit.Name).Msg("Dispatching request to worker")

	// Dispatching
	resp, err := o.dispatcher.Authenticate(ctx, unit, req, requestID)
	switch {
	case err == nil:
		// Completed: the worker handled biometric material, retire it.
		// Dispose failure does not touch the client-visible result.
		cctx, cancel := compensationContext(ctx)
		defer cancel()
		if derr := o.coordinator.Dispose(cctx, unit); derr != nil {
			logger.Error().Err(derr).Str("pod", unit.Name).Msg("Failed to dispose worker after completed job")
		}

		resp.DurationMs = time.Since(start).Milliseconds()
		if resp.Matched {
			metrics.AuthRequestsTotal.WithLabelValues("matched").Inc()
		} else {
			metrics.AuthRequestsTotal.WithLabelValues("no_match").Inc()
		}
		logger.Info().
			Str("pod", unit.Name).
			Bool("matched", resp.Matched).
			Float32("confidence", resp.Confidence).
			Msg("Request completed")
		return resp, nil

	case errors.Is(err, dispatch.ErrUnreachable):
		// Compensating: the pod never saw the job, return it to the pool
		// instead of shrinking capacity over a transient network fault
		cctx, cancel := compensationContext(ctx)
		defer cancel()
		if rerr := o.coordinator.Release(cctx, unit); rerr != nil {
			logger.Error().Err(rerr).Str("pod", unit.Name).Msg("Failed to release worker after dispatch failure")
		}
		logger.Warn().Err(err).Str("pod", unit.Name).Msg("Worker unreachable")
		metrics.AuthRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)

	default:
		// Compensating: the pod failed mid-inference and cannot be
		// trusted for reuse, retire it
		cctx, cancel := compensationContext(ctx)
		defer cancel()
		if derr := o.coordinator.Dispose(cctx, unit); derr != nil {
			logger.Error().Err(derr).Str("pod", unit.Name).Msg("Failed to dispose worker after processing failure")
		}
		logger.Warn().Err(err).Str("pod", unit.Name).Msg("Worker reported processing failure")
		metrics.AuthRequestsTotal.WithLabelValues("worker_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
}
