package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coldlead_backend/internal/bootstrap"
	apphttp "coldlead_backend/internal/http"
	"coldlead_backend/internal/http/router"
	"coldlead_backend/internal/job"
	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build outreach pipeline", "error", err)
		panic("failed to build outreach pipeline: " + err.Error())
	}
	defer pipeline.Close()

	if cfg.GetCronSecret() == "" {
		log.Warn("CRON_SECRET not configured; every trigger call will be rejected")
	}

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			job.NewModule(pipeline.Controller),
		},
	}
	if pipeline.Pool != nil {
		app.Health = pipeline.Pool
	}

	// Runs send messages one by one with pauses, so writes get a long deadline.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
