package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"coldlead_backend/internal/bootstrap"
	"coldlead_backend/internal/scheduler"
	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "spec", cfg.GetOutreachCronSpec(), "timezone", cfg.GetOutreachTimezone().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build outreach pipeline", "error", err)
		panic("failed to build outreach pipeline: " + err.Error())
	}
	defer pipeline.Close()

	periodic, err := scheduler.NewPeriodic(cfg, log.WithComponent("scheduler"))
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, pipeline.Controller, log.WithComponent("worker"))
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return periodic.Run(gctx) })
	g.Go(func() error { return worker.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler stopped")
}
