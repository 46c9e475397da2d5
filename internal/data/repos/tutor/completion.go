package tutor

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type CompletionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Completion) ([]*types.Completion, error)
	ListByActivityUser(dbc dbctx.Context, activityID, userID uuid.UUID) ([]*types.Completion, error)
}

type completionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, log *logger.Logger) CompletionRepo {
	return &completionRepo{db: db, log: log.With("repo", "CompletionRepo")}
}

func (r *completionRepo) Create(dbc dbctx.Context, rows []*types.Completion) ([]*types.Completion, error) {
	if len(rows) == 0 {
		return []*types.Completion{}, nil
	}
	for _, row := range rows {
		if row.ItemID == uuid.Nil || row.MessageID == uuid.Nil {
			return nil, fmt.Errorf("completion requires item_id and message_id")
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *completionRepo) ListByActivityUser(dbc dbctx.Context, activityID, userID uuid.UUID) ([]*types.Completion, error) {
	if activityID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing activity_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Completion
	if err := txx.WithContext(dbc.Ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type FlagRepo interface {
	Create(dbc dbctx.Context, row *types.Flag) error
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Flag, error)
}

type flagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlagRepo(db *gorm.DB, log *logger.Logger) FlagRepo {
	return &flagRepo{db: db, log: log.With("repo", "FlagRepo")}
}

func (r *flagRepo) Create(dbc dbctx.Context, row *types.Flag) error {
	if row == nil {
		return fmt.Errorf("nil flag")
	}
	if row.MessageID == uuid.Nil || row.ThreadID == uuid.Nil {
		return fmt.Errorf("flag requires message_id and thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *flagRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Flag, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Flag
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
