package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/storage"
)

// DefaultHistoryLimit is how many recent queries are remembered.
const DefaultHistoryLimit = 5

// History is the list of recent distinct queries, newest first, persisted under
// storage.KeySearchHistory.
type History struct {
	mu     sync.Mutex
	store  storage.Store
	limit  int
	logger logger.Logger
}

func NewHistory(store storage.Store, limit int, log logger.Logger) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		store:  store,
		limit:  limit,
		logger: log.WithFields(map[string]interface{}{"component": "search-history"}),
	}
}

// List returns the stored queries. Missing or malformed data reads as empty.
func (h *History) List(ctx context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

func (h *History) load(ctx context.Context) ([]string, error) {
	data, err := h.store.Get(ctx, storage.KeySearchHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageReadFailedError(storage.KeySearchHistory, err)
	}

	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		h.logger.Warn("Discarding malformed search history", map[string]interface{}{"error": err.Error()})
		return []string{}, nil
	}
	if len(queries) > h.limit {
		queries = queries[:h.limit]
	}
	return queries, nil
}

// Record moves query to the front, dropping any earlier copy and anything past the
// limit. Blank queries are ignored.
func (h *History) Record(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)

	h.mu.Lock()
	defer h.mu.Unlock()

	current, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return current, nil
	}

	next := make([]string, 0, h.limit)
	next = append(next, query)
	for _, q := range current {
		if q == query {
			continue
		}
		if len(next) == h.limit {
			break
		}
		next = append(next, q)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := h.store.Set(ctx, storage.KeySearchHistory, data); err != nil {
		return next, apperrors.NewStorageWriteFailedError(storage.KeySearchHistory, err)
	}
	return next, nil
}

// Clear removes the storage key. Clearing an empty history succeeds.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, storage.KeySearchHistory); err != nil {
		return apperrors.NewStorageWriteFailedError(storage.KeySearchHistory, err)
	}
	return nil
}
