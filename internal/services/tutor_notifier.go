package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/realtime"
)

// TutorNotifier publishes pipeline changes on the owning user's channel.
type TutorNotifier interface {
	MessagesUpserted(ctx context.Context, userID uuid.UUID, msgs ...*types.Message)
	MessageDelta(ctx context.Context, userID, threadID, messageID uuid.UUID, delta string)
	DescendantsDeleted(ctx context.Context, userID uuid.UUID, del types.Deletion)
	CompletionsUpserted(ctx context.Context, userID uuid.UUID, rows []*types.Completion)
	ViewPiecesUpserted(ctx context.Context, userID, messageID uuid.UUID, pieces []*types.ViewPiece)
	FlagsUpserted(ctx context.Context, userID uuid.UUID, flags []*types.Flag)
	ThreadsUpserted(ctx context.Context, userID uuid.UUID, threads ...*types.Thread)
	ThreadWrapped(ctx context.Context, wrap types.ThreadWrap)
}

type tutorNotifier struct {
	emit SSEEmitter
}

func NewTutorNotifier(emit SSEEmitter) TutorNotifier {
	return &tutorNotifier{emit: emit}
}

func (n *tutorNotifier) send(ctx context.Context, userID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	})
}

func (n *tutorNotifier) MessagesUpserted(ctx context.Context, userID uuid.UUID, msgs ...*types.Message) {
	if len(msgs) == 0 {
		return
	}
	n.send(ctx, userID, realtime.SSEEventMessagesUpserted, map[string]any{"messages": msgs})
}

func (n *tutorNotifier) MessageDelta(ctx context.Context, userID, threadID, messageID uuid.UUID, delta string) {
	if delta == "" {
		return
	}
	n.send(ctx, userID, realtime.SSEEventMessageDelta, map[string]any{
		"thread_id":  threadID,
		"message_id": messageID,
		"delta":      delta,
	})
}

func (n *tutorNotifier) DescendantsDeleted(ctx context.Context, userID uuid.UUID, del types.Deletion) {
	if del.Empty() {
		return
	}
	n.send(ctx, userID, realtime.SSEEventDescendantsDeleted, map[string]any{"deletion": del})
}

func (n *tutorNotifier) CompletionsUpserted(ctx context.Context, userID uuid.UUID, rows []*types.Completion) {
	if len(rows) == 0 {
		return
	}
	n.send(ctx, userID, realtime.SSEEventCompletionsUpserted, map[string]any{"completions": rows})
}

func (n *tutorNotifier) ViewPiecesUpserted(ctx context.Context, userID, messageID uuid.UUID, pieces []*types.ViewPiece) {
	if len(pieces) == 0 {
		return
	}
	n.send(ctx, userID, realtime.SSEEventViewPiecesUpserted, map[string]any{
		"message_id":  messageID,
		"view_pieces": pieces,
	})
}

func (n *tutorNotifier) FlagsUpserted(ctx context.Context, userID uuid.UUID, flags []*types.Flag) {
	if len(flags) == 0 {
		return
	}
	n.send(ctx, userID, realtime.SSEEventFlagsUpserted, map[string]any{"flags": flags})
}

func (n *tutorNotifier) ThreadsUpserted(ctx context.Context, userID uuid.UUID, threads ...*types.Thread) {
	if len(threads) == 0 {
		return
	}
	n.send(ctx, userID, realtime.SSEEventThreadsUpserted, map[string]any{"threads": threads})
}

func (n *tutorNotifier) ThreadWrapped(ctx context.Context, wrap types.ThreadWrap) {
	n.send(ctx, wrap.UserID, realtime.SSEEventThreadWrap, map[string]any{"thread_wrap": wrap})
}
