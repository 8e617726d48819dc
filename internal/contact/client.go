// Package contact submits storefront contact forms to an external endpoint.
package contact

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/google/uuid"

	"storefront-workers/internal/common/errors"
	commonhttp "storefront-workers/internal/common/http"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/models"
)

// Result is the outcome of one submission.
type Result struct {
	ID         string                 `json:"id"`
	State      models.SubmissionState `json:"state"`
	StatusCode int                    `json:"statusCode,omitempty"`
}

// Mailer forwards an accepted submission, e.g. to the store inbox.
type Mailer interface {
	Send(ctx context.Context, sub models.ContactSubmission) error
}

type Option func(*Client)

func WithMailer(m Mailer) Option {
	return func(c *Client) { c.mailer = m }
}

// Client posts submissions once. A failed submission is never retried; the user resubmits.
type Client struct {
	http     *commonhttp.Client
	endpoint string
	mailer   Mailer
	logger   logger.Logger
}

func NewClient(httpClient *commonhttp.Client, endpoint string, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:     httpClient,
		endpoint: endpoint,
		logger:   log.WithFields(map[string]interface{}{"component": "contact"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func SubmissionSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"name", "email", "message"},
		Properties: map[string]validation.Property{
			"name":    {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(100)},
			"email":   {Type: "string", Format: "email", MaxLength: validation.IntPtr(255)},
			"subject": {Type: "string", MaxLength: validation.IntPtr(200)},
			"message": {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(5000)},
		},
	}
}

// Validate trims the submission in place and checks it against SubmissionSchema.
func Validate(sub *models.ContactSubmission) error {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Subject = strings.TrimSpace(sub.Subject)
	sub.Message = strings.TrimSpace(sub.Message)

	result, err := validation.Validate(SubmissionSchema(), sub)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if !result.Valid {
		return errors.NewContactValidationFailedError(result.Summary())
	}
	return nil
}

// Submit validates sub and posts it. Any non-2xx answer or transport error yields a
// failure result together with a CONTACT_* error.
func (c *Client) Submit(ctx context.Context, sub models.ContactSubmission) (Result, error) {
	if err := Validate(&sub); err != nil {
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		return Result{State: models.SubmissionFailure}, err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	res := Result{ID: sub.ID, State: models.SubmissionFailure}
	err := c.http.PostJSON(ctx, c.endpoint, sub, nil)
	if err != nil {
		metrics.ContactSubmissions.WithLabelValues(string(models.SubmissionFailure)).Inc()

		var statusErr *commonhttp.StatusError
		if stderrors.As(err, &statusErr) {
			res.StatusCode = statusErr.StatusCode
		}
		c.logger.Warn("Contact submission failed", map[string]interface{}{
			"submissionId": sub.ID,
			"statusCode":   res.StatusCode,
			"error":        err,
		})
		if isTimeout(err) {
			return res, errors.NewContactTimeoutError(err)
		}
		return res, errors.NewContactSubmitFailedError(err)
	}

	res.State = models.SubmissionSuccess
	metrics.ContactSubmissions.WithLabelValues(string(models.SubmissionSuccess)).Inc()
	c.logger.Info("Contact submission accepted", map[string]interface{}{
		"submissionId": sub.ID,
	})

	if c.mailer != nil {
		if err := c.mailer.Send(ctx, sub); err != nil {
			c.logger.Warn("Failed to forward contact submission", map[string]interface{}{
				"submissionId": sub.ID,
				"error":        err,
			})
		}
	}
	return res, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
