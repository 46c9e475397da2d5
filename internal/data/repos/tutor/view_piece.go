package tutor

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type ViewPieceRepo interface {
	// CreateBatch persists the pieces of one message and their satellites
	// atomically. Orders must run 1..n and each piece carries exactly one
	// satellite.
	CreateBatch(dbc dbctx.Context, pieces []*types.ViewPiece) ([]*types.ViewPiece, error)
	ListByMessages(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ViewPiece, error)
}

type viewPieceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewViewPieceRepo(db *gorm.DB, log *logger.Logger) ViewPieceRepo {
	return &viewPieceRepo{db: db, log: log.With("repo", "ViewPieceRepo")}
}

func validateBatch(pieces []*types.ViewPiece) error {
	messageID := pieces[0].MessageID
	if messageID == uuid.Nil {
		return fmt.Errorf("missing message_id")
	}
	for i, p := range pieces {
		if p.MessageID != messageID {
			return fmt.Errorf("view piece batch spans messages %s and %s", messageID, p.MessageID)
		}
		if p.Order != i+1 {
			return fmt.Errorf("view piece order %d at position %d; orders must be contiguous from 1", p.Order, i)
		}
		n := 0
		if p.Text != nil {
			n++
		}
		if p.Image != nil {
			n++
		}
		if p.Video != nil {
			n++
		}
		if n != 1 {
			return fmt.Errorf("view piece %d has %d satellites, want 1", p.Order, n)
		}
	}
	return nil
}

func (r *viewPieceRepo) CreateBatch(dbc dbctx.Context, pieces []*types.ViewPiece) ([]*types.ViewPiece, error) {
	if len(pieces) == 0 {
		return []*types.ViewPiece{}, nil
	}
	if err := validateBatch(pieces); err != nil {
		return nil, err
	}
	write := func(txx *gorm.DB) error {
		if err := txx.Omit(clause.Associations).Create(&pieces).Error; err != nil {
			return err
		}
		var texts []*types.ViewPieceText
		var images []*types.ViewPieceImage
		var videos []*types.ViewPieceVideo
		for _, p := range pieces {
			switch {
			case p.Text != nil:
				p.Text.ViewPieceID = p.ID
				texts = append(texts, p.Text)
			case p.Image != nil:
				p.Image.ViewPieceID = p.ID
				images = append(images, p.Image)
			case p.Video != nil:
				p.Video.ViewPieceID = p.ID
				videos = append(videos, p.Video)
			}
		}
		if len(texts) > 0 {
			if err := txx.Create(&texts).Error; err != nil {
				return err
			}
		}
		if len(images) > 0 {
			if err := txx.Create(&images).Error; err != nil {
				return err
			}
		}
		if len(videos) > 0 {
			if err := txx.Create(&videos).Error; err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if dbc.Tx != nil {
		err = write(dbc.Tx.WithContext(dbc.Ctx))
	} else {
		err = r.db.WithContext(dbc.Ctx).Transaction(write)
	}
	if err != nil {
		return nil, err
	}
	return pieces, nil
}

func (r *viewPieceRepo) ListByMessages(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ViewPiece, error) {
	if len(messageIDs) == 0 {
		return []*types.ViewPiece{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ViewPiece
	if err := txx.WithContext(dbc.Ctx).
		Preload("Text").
		Preload("Image").
		Preload("Video").
		Where("message_id IN ?", messageIDs).
		Order("message_id ASC, piece_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
