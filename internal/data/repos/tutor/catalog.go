package tutor

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

// CatalogRepo reads the image and video catalog of an activity.
type CatalogRepo interface {
	CreateImages(dbc dbctx.Context, rows []*types.InfoImage) ([]*types.InfoImage, error)
	CreateVideos(dbc dbctx.Context, rows []*types.InfoVideo) ([]*types.InfoVideo, error)
	ListImages(dbc dbctx.Context, activityID uuid.UUID) ([]*types.InfoImage, error)
	ListVideos(dbc dbctx.Context, activityID uuid.UUID) ([]*types.InfoVideo, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, log *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: log.With("repo", "CatalogRepo")}
}

func (r *catalogRepo) CreateImages(dbc dbctx.Context, rows []*types.InfoImage) ([]*types.InfoImage, error) {
	if len(rows) == 0 {
		return []*types.InfoImage{}, nil
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

func (r *catalogRepo) CreateVideos(dbc dbctx.Context, rows []*types.InfoVideo) ([]*types.InfoVideo, error) {
	if len(rows) == 0 {
		return []*types.InfoVideo{}, nil
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

func (r *catalogRepo) ListImages(dbc dbctx.Context, activityID uuid.UUID) ([]*types.InfoImage, error) {
	if activityID == uuid.Nil {
		return nil, fmt.Errorf("missing activity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.InfoImage
	if err := txx.WithContext(dbc.Ctx).
		Where("activity_id = ?", activityID).
		Order("numeric_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListVideos(dbc dbctx.Context, activityID uuid.UUID) ([]*types.InfoVideo, error) {
	if activityID == uuid.Nil {
		return nil, fmt.Errorf("missing activity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.InfoVideo
	if err := txx.WithContext(dbc.Ctx).
		Where("activity_id = ?", activityID).
		Order("numeric_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
