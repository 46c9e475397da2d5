package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/http/response"
	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/realtime"
)

type RealtimeHandler struct {
	log    *logger.Logger
	pubsub realtime.PubSub
}

func NewRealtimeHandler(log *logger.Logger, pubsub realtime.PubSub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), pubsub: pubsub}
}

// SSEStream subscribes the caller to their user channel, which carries every
// tutoring event for their threads.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	sub, err := h.pubsub.Subscribe(c.Request.Context(), rd.UserID.String())
	if err != nil {
		h.log.Error("SSE subscribe failed", "user_id", rd.UserID.String(), "error", err)
		response.RespondError(c, http.StatusServiceUnavailable, "realtime_unavailable", err)
		return
	}
	defer sub.Close()

	log := h.log.With("user_id", rd.UserID.String())
	log.Info("SSEStream open")
	realtime.ServeSSE(c.Writer, c.Request, sub, log)
	log.Info("SSEStream closed")
}
