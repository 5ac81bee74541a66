package pool

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/metrics"
)

// Sweeper periodically observes the pool and reports idle/busy counts.
//
// It never mutates pod state: a busy pod with no owner can only appear
// after a failed compensation, which is already logged at the failure
// site. The sweeper makes the condition visible over time so operators
// can decide to recycle the pod, without reintroducing a second writer
// into the coordination protocol.
type Sweeper struct {
	pool     *Pool
	interval time.Duration
	stopCh   chan struct{}
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper for the given pool
func NewSweeper(p *Pool, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		pool:     p,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("sweeper"),
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	go s.run()
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idle, err := s.pool.store.List(ctx, s.pool.namespace, s.pool.idleSelector())
	if err != nil {
		s.logger.Error().Err(err).Msg("Sweep failed to list idle workers")
		return
	}
	busy, err := s.pool.store.List(ctx, s.pool.namespace, s.pool.busySelector())
	if err != nil {
		s.logger.Error().Err(err).Msg("Sweep failed to list busy workers")
		return
	}

	metrics.PoolIdleWorkers.Set(float64(len(idle)))

	event := s.logger.Debug()
	if len(idle) == 0 {
		event = s.logger.Warn()
	}
	event.
		Int("idle", len(idle)).
		Int("busy", len(busy)).
		Msg("Pool sweep")
}
