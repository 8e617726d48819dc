// internal/workers/search/suggest-products/handler.go
package suggestproducts

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/search"
)

const TaskType = "suggest-products"

type Handler struct {
	config       *Config
	catalog      search.ProductSource
	history      *search.History
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, catalog search.ProductSource, history *search.History, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      catalog,
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

	products, err := h.catalog.Products(ctx)
	if err != nil {
		return nil, err
	}

	limit := h.config.MaxSuggestions
	if input.Limit > 0 {
		limit = input.Limit
	}
	suggestions := search.NewEngine(limit).Suggest(input.Query, products)
	metrics.SuggestRequests.WithLabelValues("worker", string(suggestions.State)).Inc()
	metrics.SuggestResultSize.Observe(float64(len(suggestions.Products)))

	output := &Output{
		State:       suggestions.State,
		Suggestions: suggestions.Products,
	}

	if suggestions.State == search.StateIdle {
		output.Popular = search.Popular(products, h.config.PopularCount)
		history, err := h.history.List(ctx)
		if err != nil {
			h.logger.Warn("Search history unavailable", map[string]interface{}{"error": err})
		}
		output.History = history
		return output, nil
	}

	if input.RecordHistory {
		if _, err := h.history.Record(ctx, input.Query); err != nil {
			h.logger.Warn("Failed to record search query", map[string]interface{}{
				"query": input.Query,
				"error": err,
			})
		}
	}
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
