package tutor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/summit-backend/internal/pkg/errors"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type ThreadRepo interface {
	Create(dbc dbctx.Context, row *types.Thread) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error)
	GetSuccessor(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, row *types.Thread) error {
	if row == nil {
		return fmt.Errorf("nil thread")
	}
	if row.ActivityID == uuid.Nil || row.UserID == uuid.Nil {
		return fmt.Errorf("thread requires activity_id and user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Thread
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("thread %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

// GetSuccessor returns nil, nil when the thread has not been rotated.
func (r *threadRepo) GetSuccessor(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Thread
	if err := txx.WithContext(dbc.Ctx).
		Where("predecessor_id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing thread_id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Thread{}).
		Where("id = ?", id).
		Updates(updates).Error
}
