package realtime

import (
	"context"
	"sync"
)

// PubSub broadcasts messages to every current subscriber of a channel.
// Delivery is at-most-once per subscriber and nothing is replayed to late
// subscribers.
type PubSub interface {
	Publish(ctx context.Context, msg SSEMessage) error
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
	Close() error
}

type Subscription struct {
	C <-chan SSEMessage

	once    sync.Once
	closeFn func()
}

func NewSubscription(c <-chan SSEMessage, closeFn func()) *Subscription {
	return &Subscription{C: c, closeFn: closeFn}
}

// Close stops delivery. C is closed once the backend lets go of it.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
}
