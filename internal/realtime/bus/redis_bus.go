package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

type RedisConfig struct {
	Addr    string
	Channel string
}

// RedisBus fans messages out across processes through one redis channel and
// delivers them to local subscribers through an in-process hub.
type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	local   *realtime.SSEHub

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ realtime.PubSub = (*RedisBus)(nil)

func NewRedisBus(ctx context.Context, log *logger.Logger, cfg RedisConfig) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "summit:sse"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	b := &RedisBus{
		log:     log.With("service", "RedisSSEBus"),
		rdb:     rdb,
		channel: ch,
		local:   realtime.NewSSEHub(log),
		done:    make(chan struct{}),
	}
	if err := b.startForwarder(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return b, nil
}

func (b *RedisBus) startForwarder(ctx context.Context) error {
	fwdCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := b.rdb.Subscribe(fwdCtx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(fwdCtx); err != nil {
		cancel()
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.cancel = cancel

	go func() {
		defer close(b.done)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-fwdCtx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg realtime.SSEMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis SSE payload", "error", err)
					continue
				}
				b.local.Broadcast(msg)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (*realtime.Subscription, error) {
	return b.local.Subscribe(ctx, channel)
}

func (b *RedisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	var err error
	b.once.Do(func() {
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
		_ = b.local.Close()
		err = b.rdb.Close()
	})
	return err
}
