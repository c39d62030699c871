// Package job runs the outreach pipeline end to end and exposes it to the
// scheduler, the CLI and the trigger API.
package job

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"coldlead_backend/internal/dispatch"
	"coldlead_backend/internal/leadsync"
	"coldlead_backend/internal/queue"
	"coldlead_backend/platform/apperr"
	"coldlead_backend/platform/logger"
)

// Syncer enrolls new leads.
type Syncer interface {
	Run(ctx context.Context) (leadsync.Summary, error)
}

// Queue is the queue surface the controller reads and maintains.
type Queue interface {
	ReadPending(ctx context.Context, limit int) []queue.Entry
	CountByStatus(ctx context.Context) queue.Counts
	RequeueErrors(ctx context.Context, limit int) int
}

// Dispatcher sends a batch of entries.
type Dispatcher interface {
	Dispatch(ctx context.Context, entries []queue.Entry) dispatch.Result
}

// RunSummary is the outcome of one scheduled or triggered run.
type RunSummary struct {
	OK       bool              `json:"ok"`
	RunID    string            `json:"runId"`
	Sync     *leadsync.Summary `json:"sync"`
	Dispatch dispatch.Result   `json:"dispatch"`
	Stats    queue.Counts      `json:"stats"`
}

// SendSummary is the outcome of a dispatch-only run.
type SendSummary struct {
	OK       bool            `json:"ok"`
	Dispatch dispatch.Result `json:"dispatch"`
	Stats    queue.Counts    `json:"stats"`
}

// RetrySummary reports a requeue of failed entries.
type RetrySummary struct {
	OK       bool         `json:"ok"`
	Requeued int          `json:"requeued"`
	Stats    queue.Counts `json:"stats"`
}

type Controller struct {
	syncer       Syncer
	queue        Queue
	dispatcher   Dispatcher
	defaultLimit int
	log          *logger.Logger
}

func NewController(syncer Syncer, q Queue, dispatcher Dispatcher, defaultLimit int, log *logger.Logger) *Controller {
	if defaultLimit < 1 {
		defaultLimit = 1
	}
	return &Controller{
		syncer:       syncer,
		queue:        q,
		dispatcher:   dispatcher,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

// DefaultLimit is the batch size used when callers pass zero.
func (c *Controller) DefaultLimit() int { return c.defaultLimit }

func (c *Controller) limit(n int) int {
	if n <= 0 {
		return c.defaultLimit
	}
	return n
}

// Run refills the queue when nothing is pending, then sends one batch.
// Runs are assumed not to overlap; the scheduler serializes them.
func (c *Controller) Run(ctx context.Context, limit int) (RunSummary, error) {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := c.log.WithContext(ctx)
	limit = c.limit(limit)

	summary := RunSummary{RunID: runID}

	pending := c.queue.ReadPending(ctx, limit)
	if len(pending) == 0 {
		log.Info("queue has no pending entries, syncing leads")
		synced, err := c.syncer.Run(ctx)
		if err != nil {
			log.Error("outreach run failed during sync", "error", err)
			return summary, syncError(err).WithOp("job.Run")
		}
		summary.Sync = &synced
		pending = c.queue.ReadPending(ctx, limit)
	}

	summary.Dispatch = c.dispatcher.Dispatch(ctx, pending)
	summary.Stats = c.queue.CountByStatus(ctx)
	summary.OK = true

	log.Info("outreach run finished",
		"synced", summary.Sync != nil,
		"sent", summary.Dispatch.Sent,
		"errors", summary.Dispatch.Errors,
	)
	return summary, nil
}

// Sync enrolls new leads without sending anything.
func (c *Controller) Sync(ctx context.Context) (leadsync.Summary, error) {
	summary, err := c.syncer.Run(ctx)
	if err != nil {
		return summary, syncError(err).WithOp("job.Sync")
	}
	return summary, nil
}

// Send dispatches up to limit pending entries without syncing.
func (c *Controller) Send(ctx context.Context, limit int) SendSummary {
	pending := c.queue.ReadPending(ctx, c.limit(limit))
	result := c.dispatcher.Dispatch(ctx, pending)
	return SendSummary{OK: true, Dispatch: result, Stats: c.queue.CountByStatus(ctx)}
}

// Retry moves up to limit failed entries back to pending. Nothing is sent.
func (c *Controller) Retry(ctx context.Context, limit int) RetrySummary {
	n := c.queue.RequeueErrors(ctx, c.limit(limit))
	c.log.WithContext(ctx).Info("failed entries requeued", "count", n)
	return RetrySummary{OK: true, Requeued: n, Stats: c.queue.CountByStatus(ctx)}
}

// Stats returns the queue size per status.
func (c *Controller) Stats(ctx context.Context) queue.Counts {
	return c.queue.CountByStatus(ctx)
}

// syncError classifies a sync failure. A run cut short by cancellation or its
// deadline is internal; anything else came from a collaborator.
func syncError(err error) *apperr.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Internal("lead sync interrupted", err)
	}
	return apperr.Upstream("lead sync failed", err)
}
