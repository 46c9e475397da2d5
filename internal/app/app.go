package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/data/db"
	tutorrepos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	httpserver "github.com/yungbote/summit-backend/internal/http"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    *tutorrepos.Repos
	Clients  Clients
	Services Services
	Server   *httpserver.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration and wires every dependency. Background goroutines
// owned by the app stop on Close.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	a := &App{Log: log, Cfg: cfg, cancel: cancel}

	a.otelShutdown = observability.InitOTel(appCtx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     cfg.Otel.Headers,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	a.Metrics = observability.Init(cfg.Metrics.Enabled)

	a.DB, err = openDB(log, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := db.AutoMigrateAll(a.DB); err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = wireRepos(a.DB, log)

	a.Clients, err = wireClients(appCtx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, a.Clients)
	if err != nil {
		a.Close()
		return nil, err
	}

	handlers := wireHandlers(a.DB, log, a.Services, a.Clients.PubSub)
	middleware := wireMiddleware(log, cfg)
	a.Server = wireServer(log, cfg, handlers, middleware, a.Metrics)

	a.startCollectors(appCtx)
	return a, nil
}

// Migrate opens the configured database and applies the schema without
// wiring the rest of the app.
func Migrate(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	gdb, err := openDB(log, cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.AutoMigrateAll(gdb.WithContext(ctx)); err != nil {
		return err
	}
	log.Info("Schema migrated", "driver", cfg.DB.Driver)
	return nil
}

func (a *App) startCollectors(ctx context.Context) {
	if a.Metrics == nil {
		return
	}
	interval := time.Duration(a.Cfg.Metrics.CollectorIntervalSeconds) * time.Second
	if a.Cfg.DB.Driver == db.DriverPostgres {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB, interval)
	}
	if a.Cfg.Realtime.Backend == RealtimeRedis {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Realtime.RedisAddr, interval)
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(a.Cfg.HTTPAddr)
}

// Shutdown stops accepting requests, then releases everything Close does.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var err error
	if a.Server != nil {
		err = a.Server.Shutdown(ctx)
	}
	a.Close()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.PubSub != nil {
		if err := a.Clients.PubSub.Close(); err != nil {
			a.Log.Warn("PubSub close failed", "error", err)
		}
		a.Clients.PubSub = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		a.DB = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
