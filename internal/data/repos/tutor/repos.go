package tutor

import (
	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

// Repos bundles every tutor repository over one database handle.
type Repos struct {
	DB         *gorm.DB
	Activity   ActivityRepo
	Item       ItemRepo
	Catalog    CatalogRepo
	Thread     ThreadRepo
	Message    MessageRepo
	Completion CompletionRepo
	ViewPiece  ViewPieceRepo
	Flag       FlagRepo
	Attempt    AttemptRepo
}

func NewRepos(db *gorm.DB, log *logger.Logger) *Repos {
	return &Repos{
		DB:         db,
		Activity:   NewActivityRepo(db, log),
		Item:       NewItemRepo(db, log),
		Catalog:    NewCatalogRepo(db, log),
		Thread:     NewThreadRepo(db, log),
		Message:    NewMessageRepo(db, log),
		Completion: NewCompletionRepo(db, log),
		ViewPiece:  NewViewPieceRepo(db, log),
		Flag:       NewFlagRepo(db, log),
		Attempt:    NewAttemptRepo(db, log),
	}
}
