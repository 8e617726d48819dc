package contact

import (
	"context"
	"strings"
	"sync"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/models"
)

// Forms tracks one contact form per submitter address. A second submission from the
// same address is refused while the first is still loading.
type Forms struct {
	client *Client

	mu     sync.Mutex
	active map[string]*Tracker
}

func NewForms(client *Client) *Forms {
	return &Forms{client: client, active: make(map[string]*Tracker)}
}

// Submit runs sub through the submitter's tracker. A submission refused because another
// one is loading returns CONTACT_IN_PROGRESS with a loading result.
func (f *Forms) Submit(ctx context.Context, sub models.ContactSubmission) (Result, error) {
	key := strings.ToLower(strings.TrimSpace(sub.Email))

	f.mu.Lock()
	tracker, ok := f.active[key]
	if !ok {
		tracker = NewTracker()
		f.active[key] = tracker
	}
	f.mu.Unlock()

	res, ok, err := tracker.Submit(ctx, f.client, sub)
	if !ok {
		return res, errors.NewContactInProgressError(key)
	}

	f.mu.Lock()
	if f.active[key] == tracker && tracker.State() != models.SubmissionLoading {
		delete(f.active, key)
	}
	f.mu.Unlock()
	return res, err
}

