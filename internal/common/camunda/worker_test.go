package camunda

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/metrics"
)

type stubHandler struct {
	err   error
	calls int
}

func (s *stubHandler) Handle(worker.JobClient, entities.Job) error {
	s.calls++
	return s.err
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "test", Retries: 3}}
}

func TestInstrument_RecordsCompletedAndFailed(t *testing.T) {
	ok := &stubHandler{}
	completedBefore := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("instrument-ok"))
	Instrument("instrument-ok", ok, nil, zap.NewNop())(nil, testJob())
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, completedBefore+1, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("instrument-ok")))

	failing := &stubHandler{err: errors.NewCatalogUnavailableError("http", stderrors.New("down"))}
	failedBefore := testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues("instrument-fail", "CATALOG_UNAVAILABLE"))
	Instrument("instrument-fail", failing, nil, zap.NewNop())(nil, testJob())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues("instrument-fail", "CATALOG_UNAVAILABLE")))
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(stderrors.New("rpc error: code = Unavailable"), "publish", 2)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBrokerUnavailable))
	assert.Contains(t, err.Error(), "after 2 attempts")

	err = mapZeebeError(stderrors.New("invalid argument"), "publish", 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func TestBackoff(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(cfg, 0))
	assert.Equal(t, 4*time.Second, backoff(cfg, 2))
	assert.Equal(t, 5*time.Second, backoff(cfg, 5))
}
