package scheduler

import (
	"context"
	"errors"
	"time"

	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues an outreach run on the configured cron spec.
type Periodic struct {
	scheduler *asynq.Scheduler
	spec      string
	queue     string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, err := redisOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	spec := cfg.GetOutreachCronSpec()
	if spec == "" {
		return nil, errors.New("outreach cron spec not configured")
	}

	loc := cfg.GetOutreachTimezone()
	if loc == nil {
		loc = time.Local
	}

	p := &Periodic{spec: spec, queue: queueName(cfg), log: log}
	p.scheduler = asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				if errors.Is(err, asynq.ErrDuplicateTask) {
					log.Warn("previous outreach run still queued, skipping tick")
					return
				}
				log.Error("failed to enqueue scheduled outreach run", "error", err)
				return
			}
			log.Info("scheduled outreach run enqueued", "task_id", info.ID)
		},
	})
	return p, nil
}

// Run registers the cron entry and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	task, err := NewOutreachRunTask(OutreachRunPayload{Trigger: "schedule"})
	if err != nil {
		return err
	}
	entryID, err := p.scheduler.Register(p.spec, task, asynq.Queue(p.queue))
	if err != nil {
		return err
	}
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	p.log.Info("outreach scheduler started", "spec", p.spec, "entry", entryID)

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
