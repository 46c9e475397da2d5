package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/summit-backend/internal/http/handlers"
	httpMW "github.com/yungbote/summit-backend/internal/http/middleware"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware  *httpMW.AuthMiddleware
	HealthHandler   *httpH.HealthHandler
	RealtimeHandler *httpH.RealtimeHandler
	TutorHandler    *httpH.TutorHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/realtime/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Tutoring threads
		if cfg.TutorHandler != nil {
			protected.POST("/activities/:activityId/threads", cfg.TutorHandler.StartThread)
			protected.GET("/threads/:threadId", cfg.TutorHandler.GetThread)
			protected.GET("/threads/:threadId/messages", cfg.TutorHandler.ListMessages)
			protected.POST("/threads/:threadId/messages", cfg.TutorHandler.PostMessage)
		}
	}

	return r
}
