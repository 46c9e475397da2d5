package app

import (
	httpserver "github.com/yungbote/summit-backend/internal/http"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:             log.With("component", "http"),
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.Auth.AllowedOrigins,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		RealtimeHandler: handlers.Realtime,
		TutorHandler:    handlers.Tutor,
	})
}
