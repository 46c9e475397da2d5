package bus

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

func recvMessage(t *testing.T, ch <-chan realtime.SSEMessage, timeout time.Duration) realtime.SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return realtime.SSEMessage{}
}

func exercisePubSub(t *testing.T, ps realtime.PubSub) {
	t.Helper()
	ctx := context.Background()
	channel := uuid.New().String()

	sub, err := ps.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	other, err := ps.Subscribe(ctx, "other-"+channel)
	if err != nil {
		t.Fatalf("Subscribe other: %v", err)
	}
	defer other.Close()

	for _, ev := range []realtime.SSEEvent{realtime.SSEEventMessagesUpserted, realtime.SSEEventMessageDelta} {
		if err := ps.Publish(ctx, realtime.SSEMessage{Channel: channel, Event: ev, Data: map[string]any{"k": "v"}}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	first := recvMessage(t, sub.C, 2*time.Second)
	second := recvMessage(t, sub.C, 2*time.Second)
	if first.Event != realtime.SSEEventMessagesUpserted || second.Event != realtime.SSEEventMessageDelta {
		t.Fatalf("order: got %s then %s", first.Event, second.Event)
	}
	if data, ok := first.Data.(map[string]any); !ok || data["k"] != "v" {
		t.Fatalf("data did not survive transport: %#v", first.Data)
	}
	select {
	case msg := <-other.C:
		t.Fatalf("unexpected delivery on other channel: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBus(context.Background(), logger.Nop(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()
	exercisePubSub(t, b)
}

func TestRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(context.Background(), logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestPGBusRoundTrip(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	b, err := NewPGBus(context.Background(), logger.Nop(), PGConfig{DSN: dsn, Channel: "summit_sse_test"})
	if err != nil {
		t.Fatalf("NewPGBus: %v", err)
	}
	defer b.Close()
	exercisePubSub(t, b)

	big := realtime.SSEMessage{Channel: "c", Event: realtime.SSEEventMessageDelta, Data: strings.Repeat("x", maxNotifyPayload)}
	if err := b.Publish(context.Background(), big); err == nil {
		t.Fatalf("expected oversized payload to be rejected")
	}
}
