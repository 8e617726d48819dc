// Package notification owns the storefront notification center: an ordered,
// newest-first list persisted in full after every change, plus a simulator that adds
// random notifications on a timer.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/storage"

	"github.com/jonboulle/clockwork"
)

// DefaultHighlight is how long a new notification stays flagged as new.
const DefaultHighlight = 3 * time.Second

// Draft is a notification before the store assigns its ID and date.
type Draft struct {
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Type    models.Category `json:"type"`
}

// Listener receives every list value the store publishes.
type Listener func([]models.Notification)

type Option func(*Store)

func WithHighlight(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.highlight = d
		}
	}
}

// Store holds the notification list. Each mutation replaces the list with a new slice,
// so values returned by List and passed to listeners are never modified afterwards.
type Store struct {
	kv        storage.Store
	clock     clockwork.Clock
	logger    logger.Logger
	highlight time.Duration

	mu        sync.Mutex
	pubMu     sync.Mutex
	items     []models.Notification
	fresh     map[int64]clockwork.Timer
	lastID    int64
	listeners map[int]Listener
	nextSub   int
	closed    bool
}

func NewStore(kv storage.Store, clock clockwork.Clock, log logger.Logger, opts ...Option) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{
		kv:        kv,
		clock:     clock,
		logger:    log.WithFields(map[string]interface{}{"component": "notification-store"}),
		highlight: DefaultHighlight,
		items:     []models.Notification{},
		fresh:     make(map[int64]clockwork.Timer),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. Missing or malformed data
// is replaced by the seed set and is never an error; only a failing backend is.
func (s *Store) Load(ctx context.Context) error {
	list, err := s.readPersisted(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, t := range s.fresh {
		t.Stop()
	}
	s.fresh = make(map[int64]clockwork.Timer)
	s.items = list
	s.lastID = 0
	for _, n := range list {
		if n.ID > s.lastID {
			s.lastID = n.ID
		}
	}
	snapshot := s.items

	metrics.NotificationsUnread.Set(float64(models.UnreadCount(snapshot)))
	s.unlockAndPublish(snapshot)
	return nil
}

func (s *Store) readPersisted(ctx context.Context) ([]models.Notification, error) {
	data, err := s.kv.Get(ctx, storage.KeyNotifications)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("No persisted notifications, using seed set", nil)
		return SeedNotifications(s.clock.Now()), nil
	}
	if err != nil {
		metrics.StorageErrors.WithLabelValues(storage.KeyNotifications, "read").Inc()
		return nil, apperrors.NewStorageReadFailedError(storage.KeyNotifications, err)
	}

	var list []models.Notification
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("Persisted notifications are malformed, using seed set", map[string]interface{}{
			"error": apperrors.NewPersistedDataCorruptError(storage.KeyNotifications, err).Error(),
		})
		return SeedNotifications(s.clock.Now()), nil
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// List returns the current list, newest first.
func (s *Store) List() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// UnreadCount is derived from the list on every call.
func (s *Store) UnreadCount() int {
	return models.UnreadCount(s.List())
}

// IsNew reports whether id is still inside its highlight window.
func (s *Store) IsNew(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fresh[id]
	return ok
}

// Snapshot returns the list and the IDs still inside their highlight window, in list
// order, as one consistent view.
func (s *Store) Snapshot() ([]models.Notification, []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, s.newIDsLocked()
}

func (s *Store) newIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.fresh))
	for _, n := range s.items {
		if _, ok := s.fresh[n.ID]; ok {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Add stamps the draft with the current time, prepends it and starts its highlight
// timer. IDs are Unix milliseconds, bumped when two notifications share a millisecond.
func (s *Store) Add(ctx context.Context, d Draft) (models.Notification, error) {
	if !d.Type.Valid() {
		return models.Notification{}, apperrors.NewInvalidCategoryError(string(d.Type))
	}

	now := s.clock.Now()
	var created models.Notification
	err := s.mutate(ctx, "add", func(items []models.Notification) ([]models.Notification, bool) {
		id := now.UnixMilli()
		if id <= s.lastID {
			id = s.lastID + 1
		}
		s.lastID = id

		created = models.Notification{
			ID:      id,
			Title:   d.Title,
			Message: d.Message,
			Type:    d.Type,
			Date:    now.UTC().Truncate(time.Millisecond),
		}
		next := make([]models.Notification, 0, len(items)+1)
		next = append(next, created)
		next = append(next, items...)

		if !s.closed {
			s.fresh[id] = s.clock.AfterFunc(s.highlight, func() { s.clearFresh(id) })
		}
		return next, true
	})
	return created, err
}

// clearFresh runs from the highlight timer. The notification may already be gone.
// Listeners get the unchanged list so they can drop the highlight.
func (s *Store) clearFresh(id int64) {
	s.mu.Lock()
	if _, ok := s.fresh[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.fresh, id)
	s.unlockAndPublish(s.items)
}

// MarkAsRead sets the read flag. Unknown IDs are ignored.
func (s *Store) MarkAsRead(ctx context.Context, id int64) error {
	return s.mutate(ctx, "mark_read", func(items []models.Notification) ([]models.Notification, bool) {
		idx := indexOf(items, id)
		if idx < 0 || items[idx].Read {
			return items, false
		}
		next := make([]models.Notification, len(items))
		copy(next, items)
		next[idx].Read = true
		return next, true
	})
}

func (s *Store) MarkAllAsRead(ctx context.Context) error {
	return s.mutate(ctx, "mark_all_read", func(items []models.Notification) ([]models.Notification, bool) {
		next := make([]models.Notification, len(items))
		for i, n := range items {
			n.Read = true
			next[i] = n
		}
		return next, true
	})
}

// Delete removes one notification and cancels its highlight timer. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.mutate(ctx, "delete", func(items []models.Notification) ([]models.Notification, bool) {
		if t, ok := s.fresh[id]; ok {
			t.Stop()
			delete(s.fresh, id)
		}
		idx := indexOf(items, id)
		if idx < 0 {
			return items, false
		}
		next := make([]models.Notification, 0, len(items)-1)
		next = append(next, items[:idx]...)
		next = append(next, items[idx+1:]...)
		return next, true
	})
}

func (s *Store) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, "clear_all", func([]models.Notification) ([]models.Notification, bool) {
		for id, t := range s.fresh {
			t.Stop()
			delete(s.fresh, id)
		}
		return []models.Notification{}, true
	})
}

// mutate applies fn under the lock and persists the resulting list. A failed write
// leaves the in-memory change in place and is reported as STORAGE_WRITE_FAILED.
func (s *Store) mutate(ctx context.Context, op string, fn func([]models.Notification) ([]models.Notification, bool)) error {
	s.mu.Lock()
	next, changed := fn(s.items)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.items = next

	var persistErr error
	data, err := json.Marshal(next)
	if err == nil {
		err = s.kv.Set(ctx, storage.KeyNotifications, data)
	}
	if err != nil {
		metrics.StorageErrors.WithLabelValues(storage.KeyNotifications, "write").Inc()
		s.logger.Error("Failed to persist notifications", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		persistErr = apperrors.NewStorageWriteFailedError(storage.KeyNotifications, err)
	}

	metrics.NotificationMutations.WithLabelValues(op).Inc()
	metrics.NotificationsUnread.Set(float64(models.UnreadCount(next)))
	s.unlockAndPublish(next)
	return persistErr
}

// Subscribe registers fn for future list values and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// unlockAndPublish must be called with s.mu held. The publish lock is taken before s.mu
// is released, so listeners see list values in mutation order. Listeners run under the
// publish lock and must not call back into the store.
func (s *Store) unlockAndPublish(list []models.Notification) {
	if s.closed {
		s.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	for _, fn := range listeners {
		fn(list)
	}
}

// Close stops every pending highlight timer and detaches listeners. The list stays
// readable; later mutations still persist but start no timers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, t := range s.fresh {
		t.Stop()
		delete(s.fresh, id)
	}
	s.listeners = make(map[int]Listener)
}

func indexOf(items []models.Notification, id int64) int {
	for i, n := range items {
		if n.ID == id {
			return i
		}
	}
	return -1
}
