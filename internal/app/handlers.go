package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/summit-backend/internal/http/handlers"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Realtime *httpH.RealtimeHandler
	Tutor    *httpH.TutorHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services, pubsub realtime.PubSub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Realtime: httpH.NewRealtimeHandler(log, pubsub),
		Tutor:    httpH.NewTutorHandler(log, services.Tutor),
	}
}
