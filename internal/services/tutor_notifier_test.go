package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type failingPubSub struct{ realtime.PubSub }

func (failingPubSub) Publish(context.Context, realtime.SSEMessage) error {
	return errors.New("boom")
}

func TestTutorNotifierUsesUserChannel(t *testing.T) {
	rec := &recordingEmitter{}
	n := NewTutorNotifier(rec)
	ctx := context.Background()
	userID := uuid.New()
	threadID := uuid.New()

	n.MessagesUpserted(ctx, userID, &types.Message{ID: uuid.New(), ThreadID: threadID})
	n.MessageDelta(ctx, userID, threadID, uuid.New(), "hel")
	n.ThreadWrapped(ctx, types.ThreadWrap{ThreadID: threadID, UserID: userID, Reason: types.ThreadWrapTokenLimit})

	if len(rec.msgs) != 3 {
		t.Fatalf("want 3 messages, got %d", len(rec.msgs))
	}
	want := []realtime.SSEEvent{realtime.SSEEventMessagesUpserted, realtime.SSEEventMessageDelta, realtime.SSEEventThreadWrap}
	for i, msg := range rec.msgs {
		if msg.Channel != userID.String() {
			t.Fatalf("msg %d channel: got %q", i, msg.Channel)
		}
		if msg.Event != want[i] {
			t.Fatalf("msg %d event: want %s got %s", i, want[i], msg.Event)
		}
	}
}

func TestTutorNotifierSkipsEmptyPayloads(t *testing.T) {
	rec := &recordingEmitter{}
	n := NewTutorNotifier(rec)
	ctx := context.Background()
	userID := uuid.New()

	n.MessageDelta(ctx, userID, uuid.New(), uuid.New(), "")
	n.DescendantsDeleted(ctx, userID, types.Deletion{ThreadID: uuid.New()})
	n.CompletionsUpserted(ctx, userID, nil)
	n.FlagsUpserted(ctx, userID, nil)
	n.ViewPiecesUpserted(ctx, userID, uuid.New(), nil)
	n.MessagesUpserted(ctx, uuid.Nil, &types.Message{})

	if len(rec.msgs) != 0 {
		t.Fatalf("expected nothing published, got %+v", rec.msgs)
	}
}

func TestPubSubEmitterSwallowsErrors(t *testing.T) {
	e := &PubSubEmitter{PubSub: failingPubSub{}, Log: logger.Nop()}
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "c", Event: realtime.SSEEventFlagsUpserted})
}
