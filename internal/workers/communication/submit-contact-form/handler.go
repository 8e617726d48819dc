// internal/workers/communication/submit-contact-form/handler.go
package submitcontactform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/contact"
	"storefront-workers/internal/models"
)

const TaskType = "submit-contact-form"

type Handler struct {
	config       *Config
	forms        *contact.Forms
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, forms *contact.Forms, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		forms:        forms,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

// Handle never retries a failed submission: contact errors carry no retry budget and
// are thrown as BPMN errors. A job for an address whose previous submission is still in
// flight fails with CONTACT_IN_PROGRESS.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		parseErr := errors.NewParseError(err)
		h.errorHandler.HandleJobError(ctx, client, job, parseErr)
		return parseErr
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return camunda.CompleteJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.forms.Submit(ctx, models.ContactSubmission{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		SubmissionID: res.ID,
		State:        res.State,
		SubmittedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
