package services

import (
	"context"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

// PubSubEmitter publishes on any realtime backend and logs failures.
type PubSubEmitter struct {
	PubSub realtime.PubSub
	Log    *logger.Logger
}

func (e *PubSubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.PubSub == nil {
		return
	}
	if err := e.PubSub.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("SSE publish failed", "event", msg.Event, "channel", msg.Channel, "error", err)
	}
}
