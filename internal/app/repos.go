package app

import (
	"gorm.io/gorm"

	tutorrepos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) *tutorrepos.Repos {
	log.Info("Wiring repos...")
	return tutorrepos.NewRepos(db, log)
}
