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

type MessageRepo interface {
	// Create appends rows to their threads, assigning seq in slice order.
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error)
	LatestUserMessage(dbc dbctx.Context, threadID uuid.UUID) (*types.Message, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// MarkComplete moves an incomplete message to a complete status. It fails
	// with ErrConflict if the message is already complete or gone.
	MarkComplete(dbc dbctx.Context, id uuid.UUID, status types.MessageStatus, updates map[string]interface{}) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	nextSeq := map[uuid.UUID]int64{}
	for _, row := range rows {
		if row.ThreadID == uuid.Nil {
			return nil, fmt.Errorf("missing thread_id")
		}
		if row.Status == "" {
			row.Status = types.MessageIncomplete
		}
		seq, ok := nextSeq[row.ThreadID]
		if !ok {
			var maxSeq int64
			if err := txx.WithContext(dbc.Ctx).
				Model(&types.Message{}).
				Select("COALESCE(MAX(seq), 0)").
				Where("thread_id = ?", row.ThreadID).
				Scan(&maxSeq).Error; err != nil {
				return nil, err
			}
			seq = maxSeq
		}
		seq++
		row.Seq = seq
		nextSeq[row.ThreadID] = seq
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *messageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing message_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) LatestUserMessage(dbc dbctx.Context, threadID uuid.UUID) (*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ? AND sender_role = ?", threadID, types.SenderUser).
		Order("seq DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no user message in thread %s: %w", threadID, pkgerrors.ErrNotFound)
	}
	return out[0], nil
}

func (r *messageRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing message_id")
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
		Model(&types.Message{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *messageRepo) MarkComplete(dbc dbctx.Context, id uuid.UUID, status types.MessageStatus, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing message_id")
	}
	if !status.IsComplete() {
		return fmt.Errorf("status %q is not a complete status", status)
	}
	fields := map[string]interface{}{}
	for k, v := range updates {
		fields[k] = v
	}
	fields["status"] = status
	fields["updated_at"] = time.Now().UTC()

	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("id = ? AND status = ?", id, types.MessageIncomplete).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %s is not incomplete: %w", id, pkgerrors.ErrConflict)
	}
	return nil
}
