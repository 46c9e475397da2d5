package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/domain/tutor"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(tutor.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
