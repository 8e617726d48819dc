// internal/workers/search/manage-search-history/handler.go
package managesearchhistory

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/search"
)

const TaskType = "manage-search-history"

type Handler struct {
	config       *Config
	history      *search.History
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, history *search.History, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		history:      history,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := validation.Validate(GetInputSchema(), input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}

	action := strings.ToLower(strings.TrimSpace(input.Action))
	var history []string

	switch action {
	case ActionRecord:
		history, err = h.history.Record(ctx, input.Query)
	case ActionList:
		history, err = h.history.List(ctx)
	case ActionClear:
		err = h.history.Clear(ctx)
	default:
		return nil, errors.NewInvalidActionError(input.Action)
	}
	if err != nil {
		return nil, err
	}

	if history == nil {
		history = []string{}
	}
	h.logger.Debug("Search history updated", map[string]interface{}{
		"action": action,
		"size":   len(history),
	})
	return &Output{Action: action, History: history}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
