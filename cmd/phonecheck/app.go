package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	auditasync "3tcapital/phonecheck/internal/adapters/audit/async"
	auditmemory "3tcapital/phonecheck/internal/adapters/audit/memory"
	auditpostgres "3tcapital/phonecheck/internal/adapters/audit/postgres"
	rediscache "3tcapital/phonecheck/internal/adapters/cache/redis"
	phonememory "3tcapital/phonecheck/internal/adapters/phone/memory"
	phonepostgres "3tcapital/phonecheck/internal/adapters/phone/postgres"
	phoneapi "3tcapital/phonecheck/internal/adapters/phoneapi/http"
	apphealth "3tcapital/phonecheck/internal/application/health"
	"3tcapital/phonecheck/internal/application/lookup"
	"3tcapital/phonecheck/internal/core/audit"
	corecache "3tcapital/phonecheck/internal/core/cache"
	"3tcapital/phonecheck/internal/core/phone"
	"3tcapital/phonecheck/internal/infrastructure/cache"
	"3tcapital/phonecheck/internal/infrastructure/config"
	"3tcapital/phonecheck/internal/infrastructure/database"
	httpinfra "3tcapital/phonecheck/internal/infrastructure/http"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
	"3tcapital/phonecheck/internal/infrastructure/redis"
)

// app holds the wired lookup pipeline and the resources it owns.
type app struct {
	cfg      config.AppConfig
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	service  *lookup.Service
	recorder *auditasync.Recorder
	probes   []apphealth.Probe
	closers  []func()
}

// newApp connects the configured backends and builds the lookup service.
// withAudit controls whether resolves are recorded; CLI one-shots skip it.
func newApp(ctx context.Context, cfg config.AppConfig, log *slog.Logger, withAudit bool) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	records, history, err := a.openStorage(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	store, err := a.openCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	transport := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:     cfg.PhoneAPI.Timeout,
		MaxBodySize: 2048,
	}, log, a.metrics, "phoneapi")
	remote := phoneapi.NewClient(cfg.PhoneAPI.BaseURL, transport, log)
	provider := lookup.NewCachedProvider(remote, store, cfg.Cache.TTL, log, a.metrics)

	var recorder audit.Recorder
	if withAudit && cfg.Audit.Enabled {
		a.recorder = auditasync.NewRecorder(history, cfg.Audit.QueueSize, log, a.metrics)
		recorder = a.recorder
	}

	a.service = lookup.NewService(records, provider, recorder, history, log, a.metrics)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (phone.Repository, audit.Repository, error) {
	if a.cfg.Storage.Backend == config.BackendMemory {
		a.log.Warn("Using in-memory storage, records and history are lost on exit")
		return phonememory.NewRepository(), auditmemory.NewRepository(), nil
	}

	pool, err := openPool(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, pool.Close)
	a.probes = append(a.probes, apphealth.Probe{Name: "postgres", Check: pool.Ping})
	a.log.Info("Database connection established", "database", a.cfg.Database.Database)

	if a.cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool, a.log); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return phonepostgres.NewRepository(pool, a.log), auditpostgres.NewRepository(pool, a.log), nil
}

func (a *app) openCache(ctx context.Context) (corecache.Store, error) {
	if a.cfg.Cache.Backend != config.BackendRedis {
		store, err := cache.NewMemoryCache(a.cfg.Cache.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		return store, nil
	}

	client, err := redis.New(ctx, redis.Config{
		URL:          a.cfg.Cache.RedisURL,
		PoolSize:     a.cfg.Cache.PoolSize,
		MinIdleConns: a.cfg.Cache.MinIdleConns,
		DialTimeout:  a.cfg.Cache.DialTimeout,
		ReadTimeout:  a.cfg.Cache.ReadTimeout,
		WriteTimeout: a.cfg.Cache.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.probes = append(a.probes, apphealth.Probe{Name: "redis", Check: client.Health})
	a.log.Info("Redis result cache connected")

	return rediscache.NewStore(client.Client), nil
}

func (a *app) close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openPool(ctx context.Context, cfg config.DatabaseSettings) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Database,
		User:            cfg.User,
		Password:        cfg.Password,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}
