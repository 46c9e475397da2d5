package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/data/db"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/alert"
	"github.com/yungbote/summit-backend/internal/platform/openai"
	"github.com/yungbote/summit-backend/internal/platform/sendgrid"
	"github.com/yungbote/summit-backend/internal/realtime"
	"github.com/yungbote/summit-backend/internal/realtime/bus"
)

type Clients struct {
	AI     openai.Client
	PubSub realtime.PubSub
	Alert  alert.Alerter
}

func newLogger(cfg Config) (*logger.Logger, error) {
	return logger.NewWithOptions(cfg.LogMode, logger.Options{
		Level:            cfg.Log.Level,
		RedactionEnabled: cfg.Log.RedactionEnabled,
		HashSalt:         cfg.Log.HashSalt,
	})
}

func openDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	return db.Open(log, db.Config{
		Driver:     cfg.DB.Driver,
		DSN:        cfg.DB.DSN,
		SQLitePath: cfg.DB.SQLitePath,
	})
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	ai, err := openai.NewClient(log, openai.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		DefaultModel: cfg.LLM.TutorModel,
		Timeout:      time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries:   cfg.LLM.MaxRetries,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai: %w", err)
	}

	ps, err := wirePubSub(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	al, err := wireAlerts(log, cfg)
	if err != nil {
		_ = ps.Close()
		return Clients{}, err
	}
	return Clients{AI: ai, PubSub: ps, Alert: al}, nil
}

func wirePubSub(ctx context.Context, log *logger.Logger, cfg Config) (realtime.PubSub, error) {
	switch cfg.Realtime.Backend {
	case RealtimeRedis:
		b, err := bus.NewRedisBus(ctx, log, bus.RedisConfig{Addr: cfg.Realtime.RedisAddr, Channel: cfg.Realtime.RedisChannel})
		if err != nil {
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
		return b, nil
	case RealtimePostgres:
		b, err := bus.NewPGBus(ctx, log, bus.PGConfig{DSN: cfg.DB.DSN, Channel: cfg.Realtime.PGChannel})
		if err != nil {
			return nil, fmt.Errorf("init postgres bus: %w", err)
		}
		return b, nil
	default:
		return realtime.NewSSEHub(log), nil
	}
}

// wireAlerts always returns a usable Alerter; with no sinks configured it is
// a no-op.
func wireAlerts(log *logger.Logger, cfg Config) (alert.Alerter, error) {
	minInterval := time.Duration(cfg.Alert.MinIntervalSeconds) * time.Second
	var sinks []alert.Alerter
	if wh := alert.NewWebhook(log, cfg.Alert.WebhookURL, minInterval); wh != nil {
		sinks = append(sinks, wh)
	}
	if cfg.Alert.SendGridAPIKey != "" && len(cfg.Alert.EmailTo) > 0 {
		sg, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.Alert.SendGridAPIKey,
			DefaultFromEmail: cfg.Alert.SendGridFromEmail,
			DefaultFromName:  "Summit Alerts",
			MaxRetries:       2,
		})
		if err != nil {
			return nil, fmt.Errorf("init sendgrid: %w", err)
		}
		sinks = append(sinks, alert.NewEmail(log, sg, cfg.Alert.EmailTo, minInterval))
	}
	if len(sinks) == 0 {
		log.Warn("No alert sinks configured; operational alerts will only be logged")
	}
	return alert.New(sinks...), nil
}
