package scheduler

import (
	"context"
	"errors"
	"fmt"

	"coldlead_backend/internal/job"
	"coldlead_backend/platform/apperr"
	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Runner executes one outreach run.
type Runner interface {
	Run(ctx context.Context, limit int) (job.RunSummary, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner Runner
	log    *logger.Logger
}

// NewWorker processes outreach runs one at a time, so runs never overlap.
func NewWorker(cfg config.SchedulerConfig, runner Runner, log *logger.Logger) (*Worker, error) {
	opt, err := redisOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskOutreachRun, w.handleOutreachRun)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return errors.New("scheduler worker not configured")
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (w *Worker) handleOutreachRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutreachRunPayload(task)
	if err != nil {
		return fmt.Errorf("parse outreach run payload: %v: %w", err, asynq.SkipRetry)
	}

	summary, err := w.runner.Run(ctx, payload.Limit)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			w.log.Warn("outreach task interrupted", "trigger", payload.Trigger, "error", err)
		} else {
			w.log.Error("outreach task failed", "trigger", payload.Trigger, "error", err)
		}
		return err
	}

	w.log.Info("outreach task done",
		"trigger", payload.Trigger,
		"run_id", summary.RunID,
		"sent", summary.Dispatch.Sent,
		"errors", summary.Dispatch.Errors,
	)
	return nil
}
