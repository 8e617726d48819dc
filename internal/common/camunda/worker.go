// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/observability"
)

// JobHandler returns nil once the job was completed, or the error it reported to the broker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Every job is timed and traced.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	obs *observability.Observability,
	logger *zap.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			Instrument(taskType, handler, obs, logger)(client, job)
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// Instrument wraps handler with metrics, a span and error logging.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, logger *zap.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		ctx, span := obs.StartSpan(context.Background(), "job "+taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("job.process_instance_key", job.ProcessInstanceKey),
		)
		defer span.End()

		status := "completed"
		if err := handler.Handle(client, job); err != nil {
			status = "failed"
			code := apperrors.AsStandardError(err).Code
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(code)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, string(code))
			logger.Error("Handler returned error",
				zap.Error(err),
				zap.Int64("jobKey", job.Key),
				zap.String("errorCode", string(code)),
			)
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", zap.String("taskType", w.taskType))
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("failed to create complete job command: %w", err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		return apperrors.NewBrokerUnavailableError("complete job", err)
	}
	return nil
}
