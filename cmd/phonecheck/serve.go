package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	healthhttp "3tcapital/phonecheck/internal/adapters/http/health"
	lookuphttp "3tcapital/phonecheck/internal/adapters/http/lookup"
	apphealth "3tcapital/phonecheck/internal/application/health"
	"3tcapital/phonecheck/internal/infrastructure/config"
	"3tcapital/phonecheck/internal/infrastructure/http/server"
	"3tcapital/phonecheck/internal/infrastructure/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the audit writer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close()

	log.Info("Lookup pipeline configured",
		"storage", cfg.Storage.Backend,
		"cache", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"audit_enabled", a.recorder != nil,
		"auth_enabled", cfg.Auth.Enabled,
	)

	health := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, a.probes...)
	lookupHandler := lookuphttp.NewHandler(a.service, cfg.Auth.LoginURL, log)

	srv, err := server.New(server.Options{
		Config:         cfg,
		Logger:         log,
		HealthHandler:  http.HandlerFunc(healthhttp.NewHandler(health, log).Status),
		CheckHandler:   http.HandlerFunc(lookupHandler.Check),
		FieldHandler:   http.HandlerFunc(lookupHandler.Field),
		HistoryHandler: http.HandlerFunc(lookupHandler.History),
		MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if a.recorder != nil {
		g.Go(func() error {
			return a.recorder.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Info("Shutdown complete")
	return nil
}
