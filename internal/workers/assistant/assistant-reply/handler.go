// internal/workers/assistant/assistant-reply/handler.go
package assistantreply

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"storefront-workers/internal/assistant"
	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/search"
)

const TaskType = "assistant-reply"

type Handler struct {
	config       *Config
	assistant    *assistant.Assistant
	catalog      search.ProductSource
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, catalog search.ProductSource, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		assistant:    assistant.New(config.MaxSuggestions),
		catalog:      catalog,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

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

// execute answers without the simulated typing delay; that delay belongs to chat sessions.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := validation.Validate(GetInputSchema(), input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}

	products, err := h.catalog.Products(ctx)
	if err != nil {
		h.logger.Warn("Catalog unavailable, replying without products", map[string]interface{}{
			"error": err,
		})
		products = nil
	}

	reply := h.assistant.Reply(input.Message, products)
	return &Output{
		SessionID: input.SessionID,
		Intent:    reply.Intent,
		Reply:     reply.Text,
		Products:  reply.Products,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
