package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
)

type FinalizeInput struct {
	Thread   *types.Thread
	Attempt  *Attempt
	Enriched EnrichOutput
	Score    int
}

type FinalizeOutput struct {
	Message           *types.Message
	Wrap              *types.ThreadWrap
	Successor         *types.Thread
	SuccessorMessages []*types.Message
}

type attemptMetadata struct {
	Attempt    int `json:"attempt"`
	ErrorScore int `json:"error_score"`
}

// Finalize seals the accepted attempt and decides whether the conversation
// moves on: a finished activity wraps the thread, and a thread past the token
// ceiling is rotated into a successor seeded with fresh intro messages.
func Finalize(ctx context.Context, deps Deps, in FinalizeInput) (FinalizeOutput, error) {
	out := FinalizeOutput{}
	if in.Thread == nil || in.Attempt == nil || in.Attempt.Message == nil {
		return out, fmt.Errorf("finalize: missing thread or attempt")
	}
	thread, att := in.Thread, in.Attempt
	deps.Config = deps.Config.withDefaults()

	status := types.MessageCompleteWithoutViewPieces
	if in.Enriched.Media.HasViewPieces {
		status = types.MessageCompleteWithViewPieces
	}
	meta, err := json.Marshal(attemptMetadata{Attempt: att.Number, ErrorScore: in.Score})
	if err != nil {
		return out, fmt.Errorf("finalize: encode metadata: %w", err)
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := deps.Messages.MarkComplete(dbc, att.Message.ID, status, map[string]interface{}{
			"content":  att.Message.Content,
			"metadata": datatypes.JSON(meta),
		}); err != nil {
			return err
		}
		if err := deps.Threads.UpdateFields(dbc, thread.ID, map[string]interface{}{
			"token_length": att.TokenLength,
		}); err != nil {
			return err
		}
		msg, err := deps.Messages.GetByID(dbc, att.Message.ID)
		if err != nil {
			return err
		}
		out.Message = msg
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("finalize: seal message: %w", err)
	}
	thread.TokenLength = att.TokenLength
	deps.Notify.MessagesUpserted(ctx, thread.UserID, out.Message)

	switch {
	case in.Enriched.Completion.ActivityCompleted:
		out.Wrap = &types.ThreadWrap{
			ThreadID:   thread.ID,
			UserID:     thread.UserID,
			ActivityID: thread.ActivityID,
			Reason:     types.ThreadWrapActivityCompleted,
		}
	case att.TokenLength > deps.Config.ThreadTokenCeiling:
		if err := rotateThread(ctx, deps, thread, &out); err != nil {
			return out, err
		}
	}
	if out.Wrap != nil {
		observability.Current().IncThreadWrap(string(out.Wrap.Reason))
		deps.Notify.ThreadWrapped(ctx, *out.Wrap)
		deps.Log.Info("Thread wrapped", "thread_id", thread.ID, "reason", out.Wrap.Reason)
	}
	return out, nil
}

func rotateThread(ctx context.Context, deps Deps, thread *types.Thread, out *FinalizeOutput) error {
	existing, err := deps.Threads.GetSuccessor(dbctx.Context{Ctx: ctx}, thread.ID)
	if err != nil {
		return fmt.Errorf("finalize: load successor: %w", err)
	}
	if existing != nil {
		deps.Log.Warn("Thread already has a successor; skipping rotation", "thread_id", thread.ID, "successor_id", existing.ID)
		return nil
	}

	predecessor := thread.ID
	next := &types.Thread{
		ActivityID:    thread.ActivityID,
		UserID:        thread.UserID,
		PredecessorID: &predecessor,
	}
	var msgs []*types.Message
	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		msgs, err = seedThread(deps, dbctx.Context{Ctx: ctx, Tx: tx}, next, thread.Conclusion)
		return err
	})
	if err != nil {
		return fmt.Errorf("finalize: rotate thread: %w", err)
	}

	out.Successor = next
	out.SuccessorMessages = msgs
	out.Wrap = &types.ThreadWrap{
		ThreadID:   next.ID,
		UserID:     thread.UserID,
		ActivityID: thread.ActivityID,
		Reason:     types.ThreadWrapTokenLimit,
	}
	deps.Notify.ThreadsUpserted(ctx, thread.UserID, next)
	deps.Notify.MessagesUpserted(ctx, thread.UserID, msgs...)
	return nil
}
