// internal/workers/notification/manage-notifications/handler.go
package managenotifications

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/models"
	"storefront-workers/internal/notification"
)

const TaskType = "manage-notifications"

type Handler struct {
	config       *Config
	store        *notification.Store
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, store *notification.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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

// execute applies one store operation. Mutations on unknown IDs are no-ops, not errors.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := validation.Validate(GetInputSchema(), input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}

	action := strings.ToLower(strings.TrimSpace(input.Action))
	output := &Output{Action: action}

	switch action {
	case ActionAdd:
		created, err := h.add(ctx, input)
		if err != nil {
			return nil, err
		}
		output.Created = &created
	case ActionMarkRead:
		if input.ID == 0 {
			return nil, errors.NewInputValidationError("id is required for " + action)
		}
		err = h.store.MarkAsRead(ctx, input.ID)
	case ActionDelete:
		if input.ID == 0 {
			return nil, errors.NewInputValidationError("id is required for " + action)
		}
		err = h.store.Delete(ctx, input.ID)
	case ActionMarkAllRead:
		err = h.store.MarkAllAsRead(ctx)
	case ActionClear:
		err = h.store.ClearAll(ctx)
	case ActionList:
	default:
		return nil, errors.NewInvalidActionError(input.Action)
	}
	if err != nil {
		return nil, err
	}

	output.Notifications, output.NewIDs = h.store.Snapshot()
	output.UnreadCount = models.UnreadCount(output.Notifications)
	return output, nil
}

func (h *Handler) add(ctx context.Context, input *Input) (models.Notification, error) {
	category, err := models.ParseCategory(input.Type)
	if err != nil {
		return models.Notification{}, errors.NewInvalidCategoryError(input.Type)
	}

	draft := notification.DraftFor(category)
	if title := strings.TrimSpace(input.Title); title != "" {
		draft.Title = title
	}
	if message := strings.TrimSpace(input.Message); message != "" {
		draft.Message = message
	}

	created, err := h.store.Add(ctx, draft)
	if err != nil {
		if created.ID == 0 {
			return created, err
		}
		// Kept in memory; failing the job would add a duplicate on retry.
		h.logger.Warn("Notification added but not persisted", map[string]interface{}{
			"notificationId": created.ID,
			"error":          err,
		})
	}
	metrics.NotificationsCreated.WithLabelValues(string(category), "worker").Inc()
	return created, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
