package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/http/response"
	"github.com/yungbote/summit-backend/internal/modules/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

// TutorService is the slice of tutor.Usecases the HTTP surface needs.
type TutorService interface {
	StartThread(ctx context.Context, in tutor.StartThreadInput) (tutor.StartThreadOutput, error)
	GetThread(ctx context.Context, userID, threadID uuid.UUID) (*types.Thread, error)
	ListMessages(ctx context.Context, userID, threadID uuid.UUID) ([]*types.Message, error)
	PostUserMessage(ctx context.Context, in tutor.PostMessageInput) (*types.Message, error)
}

type TutorHandler struct {
	log   *logger.Logger
	tutor TutorService
}

func NewTutorHandler(log *logger.Logger, svc TutorService) *TutorHandler {
	return &TutorHandler{log: log.With("handler", "TutorHandler"), tutor: svc}
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// POST /api/activities/:activityId/threads
func (h *TutorHandler) StartThread(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	activityID, err := uuid.Parse(c.Param("activityId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	out, err := h.tutor.StartThread(c.Request.Context(), tutor.StartThreadInput{
		ActivityID: activityID,
		UserID:     userID,
	})
	if err != nil {
		h.log.Warn("StartThread failed", "activity_id", activityID, "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"thread": out.Thread, "messages": out.Messages})
}

// GET /api/threads/:threadId
func (h *TutorHandler) GetThread(c *gin.Context) {
	userID, threadID, ok := threadParams(c)
	if !ok {
		return
	}
	th, err := h.tutor.GetThread(c.Request.Context(), userID, threadID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// GET /api/threads/:threadId/messages
func (h *TutorHandler) ListMessages(c *gin.Context) {
	userID, threadID, ok := threadParams(c)
	if !ok {
		return
	}
	msgs, err := h.tutor.ListMessages(c.Request.Context(), userID, threadID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

// POST /api/threads/:threadId/messages
//
// The reply is produced in the background and arrives over the realtime
// stream; the response only acknowledges the stored user message.
func (h *TutorHandler) PostMessage(c *gin.Context) {
	userID, threadID, ok := threadParams(c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := h.tutor.PostUserMessage(c.Request.Context(), tutor.PostMessageInput{
		ThreadID: threadID,
		UserID:   userID,
		Content:  req.Content,
	})
	if err != nil {
		h.log.Warn("PostMessage failed", "thread_id", threadID, "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"message": msg})
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func threadParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	threadID, err := uuid.Parse(c.Param("threadId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_thread_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, threadID, true
}
