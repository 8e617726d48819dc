package contact

import (
	"context"
	"sync"

	"storefront-workers/internal/models"
)

// Tracker holds the state of one contact form: idle, loading, then success or failure.
// A form that is loading refuses a second submission.
type Tracker struct {
	mu      sync.Mutex
	state   models.SubmissionState
	lastErr error
	result  Result
}

func NewTracker() *Tracker {
	return &Tracker{state: models.SubmissionIdle}
}

func (t *Tracker) State() models.SubmissionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error of the last failed submission, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *Tracker) LastResult() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Reset returns the form to idle unless a submission is in flight.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == models.SubmissionLoading {
		return
	}
	t.state = models.SubmissionIdle
	t.lastErr = nil
	t.result = Result{}
}

// Submit runs one submission through client. It returns ok=false without calling the
// client if a submission is already loading.
func (t *Tracker) Submit(ctx context.Context, client *Client, sub models.ContactSubmission) (res Result, ok bool, err error) {
	t.mu.Lock()
	if t.state == models.SubmissionLoading {
		t.mu.Unlock()
		return Result{State: models.SubmissionLoading}, false, nil
	}
	t.state = models.SubmissionLoading
	t.lastErr = nil
	t.mu.Unlock()

	res, err = client.Submit(ctx, sub)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = res
	t.lastErr = err
	if err != nil {
		t.state = models.SubmissionFailure
	} else {
		t.state = models.SubmissionSuccess
	}
	return res, true, err
}
