package notification

import (
	"context"
	"sync"
	"time"

	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultInterval    = 15 * time.Second
	DefaultProbability = 0.2
)

// RandomSource is the subset of *math/rand/v2.Rand the simulator draws from.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

type SimulatorConfig struct {
	Interval    time.Duration
	Probability float64
}

// Simulator adds a random-category notification on each tick with the configured
// probability.
type Simulator struct {
	store  *Store
	clock  clockwork.Clock
	rand   RandomSource
	cfg    SimulatorConfig
	logger logger.Logger

	mu     sync.Mutex
	randMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSimulator(store *Store, clock clockwork.Clock, rnd RandomSource, cfg SimulatorConfig, log logger.Logger) *Simulator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Probability < 0 || cfg.Probability > 1 {
		cfg.Probability = DefaultProbability
	}
	return &Simulator{
		store:  store,
		clock:  clock,
		rand:   rnd,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notification-simulator"}),
	}
}

// Start launches the tick loop. It is a no-op while already running.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	ticker := s.clock.NewTicker(s.cfg.Interval)

	s.logger.Info("Notification simulator started", map[string]interface{}{
		"interval":    s.cfg.Interval.String(),
		"probability": s.cfg.Probability,
	})
	go s.loop(ctx, ticker, s.done)
}

func (s *Simulator) loop(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// A tick may race with cancellation; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			s.Tick(ctx)
		}
	}
}

// Stop cancels the loop and waits for it to exit, so no notification is added after
// Stop returns.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Notification simulator stopped", nil)
}

// Tick runs one simulation step and reports whether a notification was added.
func (s *Simulator) Tick(ctx context.Context) bool {
	s.randMu.Lock()
	roll := s.rand.Float64()
	var category models.Category
	if roll < s.cfg.Probability {
		category = models.Categories[s.rand.IntN(len(models.Categories))]
	}
	s.randMu.Unlock()

	if category == "" {
		return false
	}

	n, err := s.store.Add(ctx, DraftFor(category))
	if err != nil {
		// The notification is in memory even when persisting failed.
		s.logger.Warn("Simulated notification not persisted", map[string]interface{}{"error": err.Error()})
	}
	metrics.NotificationsCreated.WithLabelValues(string(category), "simulator").Inc()
	s.logger.Debug("Simulated notification added", map[string]interface{}{
		"id":       n.ID,
		"category": string(category),
	})
	return true
}
