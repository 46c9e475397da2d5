package app

import (
	httpMW "github.com/yungbote/summit-backend/internal/http/middleware"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY is empty; every authenticated route will reject requests")
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.Auth.JWTSecret),
	}
}
