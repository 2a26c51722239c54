package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubright/gamesync-api/pkg/config"
	appErrors "github.com/edubright/gamesync-api/pkg/errors"
	"github.com/edubright/gamesync-api/pkg/jobs"
)

const impactJobType = "impact_run"

type impactRun struct {
	StudentID string
	GameName  string
	Score     float64
}

// EngineDispatcher runs impact engine invocations on a background
// worker queue. Session completion commits before the run executes, so
// callers of end must not assume impact side effects are immediately
// visible.
type EngineDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewEngineDispatcher wires the impact service behind a worker queue.
func NewEngineDispatcher(engine *ImpactService, cfg config.EngineConfig, logger *zap.Logger) *EngineDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &EngineDispatcher{logger: logger}

	handler := func(ctx context.Context, job jobs.Job) error {
		run, ok := job.Payload.(impactRun)
		if !ok {
			d.logger.Error("impact job carried unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		err := engine.Apply(ctx, run.StudentID, run.GameName, run.Score)
		if err == nil {
			return nil
		}
		if appErrors.FromError(err).Code == appErrors.ErrConfigParse.Code {
			// Retrying cannot fix a malformed stored rule; the run is
			// dropped whole with no partial application.
			d.logger.Error("impact run aborted on malformed rule",
				zap.String("student_id", run.StudentID),
				zap.String("game", run.GameName),
				zap.Error(err))
			return nil
		}
		return fmt.Errorf("impact run for student %s on %s: %w", run.StudentID, run.GameName, err)
	}

	d.queue = jobs.NewQueue("impact-engine", handler, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start begins background processing.
func (d *EngineDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *EngineDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues one impact run for a completed session.
func (d *EngineDispatcher) Dispatch(studentID, gameName string, score float64) error {
	return d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    impactJobType,
		Payload: impactRun{StudentID: studentID, GameName: gameName, Score: score},
	})
}
