package tutor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/summit-backend/internal/pkg/errors"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type ActivityRepo interface {
	Create(dbc dbctx.Context, row *types.Activity) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, log *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: log.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Create(dbc dbctx.Context, row *types.Activity) error {
	if row == nil {
		return fmt.Errorf("nil activity")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *activityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Activity, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing activity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Activity
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

type ItemRepo interface {
	Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error)
	// ListByActivity returns items in their canonical order (position, id).
	ListByActivity(dbc dbctx.Context, activityID uuid.UUID) ([]*types.Item, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, log *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: log.With("repo", "ItemRepo")}
}

func (r *itemRepo) Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error) {
	if len(rows) == 0 {
		return []*types.Item{}, nil
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

func (r *itemRepo) ListByActivity(dbc dbctx.Context, activityID uuid.UUID) ([]*types.Item, error) {
	if activityID == uuid.Nil {
		return nil, fmt.Errorf("missing activity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Item
	if err := txx.WithContext(dbc.Ctx).
		Where("activity_id = ?", activityID).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
