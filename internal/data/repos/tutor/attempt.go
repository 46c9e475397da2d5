package tutor

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

// AttemptRepo rolls back rejected response attempts.
type AttemptRepo interface {
	// Delete removes the incomplete messages among messageIDs together with
	// their view pieces, satellites, completions, and flags. Complete messages
	// are left untouched. The returned Deletion lists what was removed.
	Delete(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) (types.Deletion, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, log *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: log.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Delete(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) (types.Deletion, error) {
	out := types.Deletion{ThreadID: threadID}
	if len(messageIDs) == 0 {
		return out, nil
	}
	remove := func(txx *gorm.DB) error {
		var ids []uuid.UUID
		if err := txx.Model(&types.Message{}).
			Where("id IN ? AND status = ?", messageIDs, types.MessageIncomplete).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		var pieceIDs []uuid.UUID
		if err := txx.Model(&types.ViewPiece{}).
			Where("message_id IN ?", ids).
			Pluck("id", &pieceIDs).Error; err != nil {
			return err
		}
		if len(pieceIDs) > 0 {
			for _, m := range []any{&types.ViewPieceText{}, &types.ViewPieceImage{}, &types.ViewPieceVideo{}} {
				if err := txx.Where("view_piece_id IN ?", pieceIDs).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := txx.Where("id IN ?", pieceIDs).Delete(&types.ViewPiece{}).Error; err != nil {
				return err
			}
		}

		var completionIDs []uuid.UUID
		if err := txx.Model(&types.Completion{}).
			Where("message_id IN ?", ids).
			Pluck("id", &completionIDs).Error; err != nil {
			return err
		}
		if len(completionIDs) > 0 {
			if err := txx.Where("id IN ?", completionIDs).Delete(&types.Completion{}).Error; err != nil {
				return err
			}
		}

		var flagIDs []uuid.UUID
		if err := txx.Model(&types.Flag{}).
			Where("message_id IN ?", ids).
			Pluck("id", &flagIDs).Error; err != nil {
			return err
		}
		if len(flagIDs) > 0 {
			if err := txx.Where("id IN ?", flagIDs).Delete(&types.Flag{}).Error; err != nil {
				return err
			}
		}

		if err := txx.Where("id IN ?", ids).Delete(&types.Message{}).Error; err != nil {
			return err
		}
		out.MessageIDs = ids
		out.ViewPieceIDs = pieceIDs
		out.CompletionIDs = completionIDs
		out.FlagIDs = flagIDs
		return nil
	}

	var err error
	if dbc.Tx != nil {
		err = remove(dbc.Tx.WithContext(dbc.Ctx))
	} else {
		err = r.db.WithContext(dbc.Ctx).Transaction(remove)
	}
	if err != nil {
		return types.Deletion{ThreadID: threadID}, err
	}
	if !out.Empty() {
		r.log.Debug("attempt rows deleted",
			"thread_id", threadID,
			"messages", len(out.MessageIDs),
			"view_pieces", len(out.ViewPieceIDs),
			"completions", len(out.CompletionIDs),
			"flags", len(out.FlagIDs),
		)
	}
	return out, nil
}
