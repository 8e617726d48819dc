package search

import (
	"context"
	"sync"
	"time"

	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the pause after the last keystroke before suggestions are computed.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last function passed to Trigger, once the delay has elapsed
// without another Trigger.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration

	mu      sync.Mutex
	timer   clockwork.Timer
	seq     uint64
	stopped bool
}

func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels any pending call. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// ProductSource supplies the catalog a live session searches.
type ProductSource interface {
	Products(ctx context.Context) ([]models.Product, error)
}

// Update is what a live session emits for each settled query.
type Update struct {
	Query string `json:"query"`
	Result
}

// LiveSession debounces keystrokes from one search box and emits suggestions for the
// query that was current when typing paused.
type LiveSession struct {
	engine    Engine
	source    ProductSource
	debouncer *Debouncer
	emit      func(Update)
	logger    logger.Logger
	ctx       context.Context
}

func NewLiveSession(ctx context.Context, engine Engine, source ProductSource, debouncer *Debouncer, emit func(Update), log logger.Logger) *LiveSession {
	return &LiveSession{
		engine:    engine,
		source:    source,
		debouncer: debouncer,
		emit:      emit,
		logger:    log,
		ctx:       ctx,
	}
}

// Type records the latest query text.
func (s *LiveSession) Type(query string) {
	s.debouncer.Trigger(func() {
		products, err := s.source.Products(s.ctx)
		if err != nil {
			s.logger.Warn("Catalog unavailable for live search", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			products = nil
		}
		s.emit(Update{Query: query, Result: s.engine.Suggest(query, products)})
	})
}

// Close cancels any pending suggestion.
func (s *LiveSession) Close() {
	s.debouncer.Stop()
}
