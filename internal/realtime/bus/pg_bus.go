package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

// Postgres rejects NOTIFY payloads at 8000 bytes.
const maxNotifyPayload = 7900

type PGConfig struct {
	DSN     string
	Channel string
}

// PGBus carries messages over LISTEN/NOTIFY on a single postgres channel.
type PGBus struct {
	log     *logger.Logger
	pool    *pgxpool.Pool
	channel string
	local   *realtime.SSEHub

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ realtime.PubSub = (*PGBus)(nil)

func NewPGBus(ctx context.Context, log *logger.Logger, cfg PGConfig) (*PGBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "summit_sse"
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	b := &PGBus{
		log:     log.With("service", "PGSSEBus"),
		pool:    pool,
		channel: ch,
		local:   realtime.NewSSEHub(log),
		done:    make(chan struct{}),
	}
	if err := b.startListener(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PGBus) startListener(ctx context.Context) error {
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	conn, err := b.pool.Acquire(lctx)
	if err != nil {
		cancel()
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(lctx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		conn.Release()
		cancel()
		return fmt.Errorf("listen: %w", err)
	}
	b.cancel = cancel

	go func() {
		defer close(b.done)
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(lctx)
			if err != nil {
				if lctx.Err() == nil {
					b.log.Error("postgres notification wait failed", "error", err)
				}
				return
			}
			var msg realtime.SSEMessage
			if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
				b.log.Warn("bad postgres SSE payload", "error", err)
				continue
			}
			b.local.Broadcast(msg)
		}
	}()
	return nil
}

func (b *PGBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.pool == nil {
		return fmt.Errorf("postgres SSE bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if len(raw) > maxNotifyPayload {
		return fmt.Errorf("postgres SSE payload too large: %d bytes", len(raw))
	}
	_, err = b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", b.channel, string(raw))
	return err
}

func (b *PGBus) Subscribe(ctx context.Context, channel string) (*realtime.Subscription, error) {
	return b.local.Subscribe(ctx, channel)
}

func (b *PGBus) Close() error {
	if b == nil || b.pool == nil {
		return nil
	}
	b.once.Do(func() {
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
		_ = b.local.Close()
		b.pool.Close()
	})
	return nil
}
