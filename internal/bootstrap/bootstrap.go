// Package bootstrap wires the outreach pipeline for the cmd entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coldlead_backend/internal/calendly"
	"coldlead_backend/internal/dispatch"
	"coldlead_backend/internal/job"
	"coldlead_backend/internal/leads"
	"coldlead_backend/internal/leadsync"
	"coldlead_backend/internal/programs"
	"coldlead_backend/internal/purchases"
	"coldlead_backend/internal/queue"
	"coldlead_backend/internal/stripe"
	"coldlead_backend/internal/whatsapp"
	"coldlead_backend/platform/config"
	"coldlead_backend/platform/db"
	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pipeline is a fully wired controller plus the resources it holds.
type Pipeline struct {
	Controller *job.Controller
	// Pool is nil when the queue is kept in memory.
	Pool *pgxpool.Pool
}

// Close releases the database pool.
func (p *Pipeline) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Build connects the store and assembles every pipeline component.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Pipeline, error) {
	matcher, err := programs.Load(cfg.GetProgramRulesFile())
	if err != nil {
		return nil, fmt.Errorf("load program rules: %w", err)
	}
	log.Info("program rules loaded", "rules", matcher.Len(), "file", cfg.GetProgramRulesFile())

	p := &Pipeline{}
	backend, err := openBackend(ctx, cfg, log, p)
	if err != nil {
		return nil, err
	}

	val := validator.New()
	store := queue.NewStore(backend, log.WithComponent("queue"))

	orchestrator := leadsync.New(
		calendly.New(cfg, val, log.WithComponent("calendly")),
		matcher,
		leads.NewReconciler(cfg.GetDefaultCountryCode()),
		purchases.NewIndex(stripe.New(cfg, val, log.WithComponent("stripe")), log.WithComponent("purchases")),
		store,
		cfg.GetOutreachTimezone(),
		log.WithComponent("sync"),
	)

	dispatcher := dispatch.New(
		whatsapp.NewClient(cfg, log.WithComponent("whatsapp")),
		store,
		dispatch.NewPacer(cfg),
		log.WithComponent("dispatch"),
	)

	p.Controller = job.NewController(orchestrator, store, dispatcher, cfg.GetBatchSize(), log.WithComponent("job"))
	return p, nil
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger, p *Pipeline) (queue.Backend, error) {
	if cfg.UsesMemoryStore() {
		log.Warn("queue kept in memory; nothing survives this process")
		return queue.NewMemoryBackend(), nil
	}

	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		p.Pool = pool
		return nil
	}); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := WithRetry(ctx, log, "database migrations", 3, 2*time.Second, func() error {
			return db.RunMigrations(ctx, p.Pool)
		}); err != nil {
			p.Pool.Close()
			p.Pool = nil
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database migrations complete")
	}

	return queue.NewRepository(p.Pool), nil
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
