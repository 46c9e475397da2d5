package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

// SSEHub is the in-process PubSub.
type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*SSEClient]bool
	closed        bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
}

func (hub *SSEHub) NewSSEClient() *SSEClient {
	id := uuid.New()
	return &SSEClient{
		ID:       id,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, clientBuffer),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("client_id", id),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	client.Channels[channel] = true

	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true

	hub.logger.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for ch := range client.Channels {
		if subMap, ok := hub.subscriptions[ch]; ok {
			delete(subMap, client)
			if len(subMap) == 0 {
				delete(hub.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

// Broadcast never blocks; a subscriber with a full buffer misses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if msg.Channel == "" {
		return
	}
	for c := range hub.subscriptions[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

func (hub *SSEHub) CloseClient(client *SSEClient) {
	select {
	case <-client.done:
		return
	default:
	}
	close(client.done)
	hub.RemoveClient(client)
	close(client.Outbound)
}

func (hub *SSEHub) Publish(_ context.Context, msg SSEMessage) error {
	hub.mu.RLock()
	closed := hub.closed
	hub.mu.RUnlock()
	if closed {
		return fmt.Errorf("sse hub closed")
	}
	hub.Broadcast(msg)
	return nil
}

func (hub *SSEHub) Subscribe(_ context.Context, channel string) (*Subscription, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("missing channel")
	}
	client := hub.NewSSEClient()
	hub.AddChannel(client, channel)
	return NewSubscription(client.Outbound, func() { hub.CloseClient(client) }), nil
}

func (hub *SSEHub) Close() error {
	hub.mu.Lock()
	hub.closed = true
	hub.mu.Unlock()
	return nil
}
