package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

const clientBuffer = 64

type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}
