package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/search"
)

// DefaultReplyDelay simulates the assistant "typing".
const DefaultReplyDelay = time.Second

// Session is one chat window. Replies arrive after the simulated delay; a reply that
// arrives after Close is dropped.
type Session struct {
	assistant *Assistant
	source    search.ProductSource
	clock     clockwork.Clock
	delay     time.Duration
	logger    logger.Logger

	mu     sync.Mutex
	closed bool
}

func NewSession(a *Assistant, source search.ProductSource, clock clockwork.Clock, delay time.Duration, log logger.Logger) *Session {
	if delay < 0 {
		delay = 0
	}
	return &Session{
		assistant: a,
		source:    source,
		clock:     clock,
		delay:     delay,
		logger:    log.WithFields(map[string]interface{}{"component": "assistant"}),
	}
}

// Ask schedules the reply to message and returns immediately. deliver runs on a timer
// goroutine at most once.
func (s *Session) Ask(ctx context.Context, message string, deliver func(Reply)) error {
	if s.isClosed() {
		return errors.NewAssistantUnavailableError("session closed")
	}

	catalog, err := s.source.Products(ctx)
	if err != nil {
		s.logger.Warn("Catalog unavailable for assistant", map[string]interface{}{
			"error": err,
		})
		catalog = nil
	}
	reply := s.assistant.Reply(message, catalog)

	s.clock.AfterFunc(s.delay, func() {
		if s.isClosed() {
			s.logger.Debug("Dropping assistant reply for closed session", map[string]interface{}{
				"intent": string(reply.Intent),
			})
			return
		}
		deliver(reply)
	})
	return nil
}

// AskAndWait blocks until the reply arrives or ctx ends. On ctx end the session is
// closed so the pending reply is dropped.
func (s *Session) AskAndWait(ctx context.Context, message string) (Reply, error) {
	replies := make(chan Reply, 1)
	if err := s.Ask(ctx, message, func(r Reply) { replies <- r }); err != nil {
		return Reply{}, err
	}
	select {
	case r := <-replies:
		return r, nil
	case <-ctx.Done():
		s.Close()
		return Reply{}, errors.NewAssistantUnavailableError(ctx.Err().Error())
	}
}

// Close marks the session closed. Pending timers still fire and are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
