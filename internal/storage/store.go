// Package storage is the durable key-value port behind notifications and search history.
// Values are opaque JSON documents stored whole under a single key.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is the key-value port. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Keys used by the storefront.
const (
	KeyNotifications = "notifications"
	KeySearchHistory = "searchHistory"
)
