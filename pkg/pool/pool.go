package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/podstore"
	"github.com/veridial/faceit/pkg/types"
)

var (
	// ErrNoIdleWorkers is returned when the fresh list of idle workers is
	// empty. A transiently empty pool is a capacity signal to the caller,
	// not a fault, so it is returned without retrying.
	ErrNoIdleWorkers = errors.New("pool: no idle workers available")

	// ErrPoolContended is returned when every acquire attempt lost the
	// conditional update race within the bounded attempt budget
	ErrPoolContended = errors.New("pool: acquire attempts exhausted under contention")
)

// Pool coordinates exclusive hand-off of idle worker pods to requesters.
//
// The pool owns no state: idle/busy is a pod label, the version token is
// the pod's resourceVersion, and every transition goes through the store's
// conditional patch. Multiple server replicas can run this code against
// the same namespace with no other synchronization.
type Pool struct {
	store       podstore.PodOperations
	namespace   string
	selector    string
	maxAttempts int
	logger      zerolog.Logger
}

// New creates a pool coordinator. selector is the base label selector for
// worker pods (for example "app=faceit-worker"); the idle status label is
// appended internally.
func New(store podstore.PodOperations, namespace, selector string, maxAttempts int) *Pool {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Pool{
		store:       store,
		namespace:   namespace,
		selector:    selector,
		maxAttempts: maxAttempts,
		logger:      log.WithComponent("pool"),
	}
}

// Acquire claims one idle worker for exclusive use.
//
// Each attempt lists the idle workers fresh, picks one uniformly at random
// to keep concurrent callers from racing for the same pod, and tries the
// conditional idle->busy patch with the version token from the list
// response. A conflict means another caller won that pod; the loop
// re-lists rather than retrying the same unit, since a stale list would
// keep handing back the now-busy pod.
func (p *Pool) Acquire(ctx context.Context) (*types.WorkerUnit, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		units, err := p.store.List(ctx, p.namespace, p.idleSelector())
		if err != nil {
			metrics.PoolAcquires.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to list idle workers: %w", err)
		}

		metrics.PoolIdleWorkers.Set(float64(len(units)))
		if len(units) == 0 {
			metrics.PoolAcquires.WithLabelValues("no_idle").Inc()
			return nil, ErrNoIdleWorkers
		}

		candidate := units[rand.Intn(len(units))]

		metrics.PoolAcquireAttempts.Inc()
		acquired, err := p.store.PatchStatus(ctx, p.namespace, candidate.Name,
			candidate.ResourceVersion, types.WorkerStatusBusy)
		if err == nil {
			p.logger.Info().
				Str("pod", acquired.Name).
				Int("attempt", attempt).
				Msg("Acquired worker pod")
			metrics.PoolAcquires.WithLabelValues("acquired").Inc()
			return &acquired, nil
		}

		if errors.Is(err, podstore.ErrConflict) || errors.Is(err, podstore.ErrNotFound) {
			// Expected under concurrency: another replica claimed the pod
			// (or it was deleted) between list and patch
			metrics.PoolAcquireConflicts.Inc()
			p.logger.Debug().
				Str("pod", candidate.Name).
				Int("attempt", attempt).
				Msg("Acquire conflict, re-listing")
			continue
		}

		metrics.PoolAcquires.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to acquire worker %s: %w", candidate.Name, err)
	}

	metrics.PoolAcquires.WithLabelValues("contended").Inc()
	return nil, ErrPoolContended
}

// Release returns a worker to the idle pool. Used only when the job never
// reached the worker, so the pod is safe to reuse.
//
// A conflict or missing pod means someone else already reclaimed or
// retired it; both are treated as success.
func (p *Pool) Release(ctx context.Context, unit *types.WorkerUnit) error {
	_, err := p.store.PatchStatus(ctx, unit.Namespace, unit.Name,
		unit.ResourceVersion, types.WorkerStatusIdle)
	if err != nil {
		if errors.Is(err, podstore.ErrConflict) || errors.Is(err, podstore.ErrNotFound) {
			p.logger.Debug().Str("pod", unit.Name).Msg("Release superseded, treating as no-op")
			metrics.PoolDisposals.WithLabelValues("release").Inc()
			return nil
		}
		return fmt.Errorf("failed to release worker %s: %w", unit.Name, err)
	}

	p.logger.Info().Str("pod", unit.Name).Msg("Released worker pod")
	metrics.PoolDisposals.WithLabelValues("release").Inc()
	return nil
}

// Dispose permanently retires a worker after it has handled a job. The pod
// is deleted rather than returned to idle; the deployment controller
// replaces it with a fresh replica. Idempotent: deleting an already-gone
// pod is success.
func (p *Pool) Dispose(ctx context.Context, unit *types.WorkerUnit) error {
	err := p.store.Delete(ctx, unit.Namespace, unit.Name)
	if err != nil && !errors.Is(err, podstore.ErrNotFound) {
		return fmt.Errorf("failed to dispose worker %s: %w", unit.Name, err)
	}

	p.logger.Info().Str("pod", unit.Name).Msg("Disposed worker pod")
	metrics.PoolDisposals.WithLabelValues("dispose").Inc()
	return nil
}

// Probe lists idle workers once, for readiness checks
func (p *Pool) Probe(ctx context.Context) (int, error) {
	units, err := p.store.List(ctx, p.namespace, p.idleSelector())
	if err != nil {
		return 0, fmt.Errorf("failed to list idle workers: %w", err)
	}
	metrics.PoolIdleWorkers.Set(float64(len(units)))
	return len(units), nil
}

func (p *Pool) idleSelector() string {
	sel := fmt.Sprintf("%s=%s", types.StatusLabel, types.WorkerStatusIdle)
	if p.selector == "" {
		return sel
	}
	return p.selector + "," + sel
}

func (p *Pool) busySelector() string {
	sel := fmt.Sprintf("%s=%s", types.StatusLabel, types.WorkerStatusBusy)
	if p.selector == "" {
		return sel
	}
	return p.selector + "," + sel
}
