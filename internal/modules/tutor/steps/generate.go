package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/platform/alert"
	"github.com/yungbote/summit-backend/internal/platform/openai"
)

// Attempt is one generated, not yet accepted assistant reply.
type Attempt struct {
	Number  int
	Message *types.Message
	// Prior is the history the reply was generated from.
	Prior       []*types.Message
	TokenLength int
}

type BeginOutput struct {
	Message *types.Message
	Prior   []*types.Message
}

// BeginResponse inserts an empty incomplete assistant message, publishes it,
// and loads the thread history without the placeholder and without any
// message in exclude.
func BeginResponse(ctx context.Context, deps Deps, thread *types.Thread, exclude map[uuid.UUID]bool) (BeginOutput, error) {
	out := BeginOutput{}
	dbc := dbctx.Context{Ctx: ctx}
	created, err := deps.Messages.Create(dbc, []*types.Message{{
		ActivityID: thread.ActivityID,
		UserID:     thread.UserID,
		ThreadID:   thread.ID,
		SenderRole: types.SenderAssistant,
		Status:     types.MessageIncomplete,
	}})
	if err != nil {
		return out, fmt.Errorf("begin response: create message: %w", err)
	}
	out.Message = created[0]
	deps.Notify.MessagesUpserted(ctx, thread.UserID, out.Message)

	all, err := deps.Messages.ListByThread(dbc, thread.ID)
	if err != nil {
		return out, fmt.Errorf("begin response: list messages: %w", err)
	}
	for _, m := range all {
		if m.ID == out.Message.ID || exclude[m.ID] {
			continue
		}
		out.Prior = append(out.Prior, m)
	}
	return out, nil
}

// generate streams one reply into a fresh placeholder. On failure the returned
// attempt still carries the placeholder so the caller can roll it back.
func generate(ctx context.Context, deps Deps, thread *types.Thread, exclude map[uuid.UUID]bool, number int) (*Attempt, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.generate")
	defer span.End()

	begin, err := BeginResponse(ctx, deps, thread, exclude)
	if begin.Message == nil {
		return nil, err
	}
	att := &Attempt{Number: number, Message: begin.Message, Prior: begin.Prior}
	if err != nil {
		return att, err
	}

	req := openai.ChatRequest{Model: deps.Config.TutorModel, Messages: toChat(begin.Prior)}
	events, err := deps.AI.StreamChat(ctx, req)
	if err == nil {
		msg := att.Message
		var res CollectResult
		res, err = CollectStream(ctx, events, CollectOptions{
			Interval: deps.Config.StreamInterval,
			Publish: func(chunk string) {
				deps.Notify.MessageDelta(ctx, thread.UserID, thread.ID, msg.ID, chunk)
			},
		})
		if err == nil {
			att.Message.Content = res.Text
			att.TokenLength = tokenLength(begin.Prior, res)
		}
	}
	if err != nil {
		span.RecordError(err)
		deps.alerter().Alert(ctx, alert.Alert{
			Title: "Tutor response generation failed",
			Details: map[string]any{
				"thread_id": thread.ID.String(),
				"attempt":   number,
				"prompt":    renderTranscript(begin.Prior),
				"error":     err.Error(),
			},
		})
		return att, fmt.Errorf("generate attempt %d: %w", number, err)
	}

	if err := deps.Messages.UpdateFields(dbctx.Context{Ctx: ctx}, att.Message.ID, map[string]interface{}{
		"content": att.Message.Content,
	}); err != nil {
		return att, fmt.Errorf("generate attempt %d: store content: %w", number, err)
	}
	return att, nil
}

// tokenLength prefers the provider's total and falls back to an estimate of
// the whole exchange.
func tokenLength(prior []*types.Message, res CollectResult) int {
	if res.Usage != nil && res.Usage.TotalTokens > 0 {
		return res.Usage.TotalTokens
	}
	var b strings.Builder
	for _, m := range prior {
		b.WriteString(m.Content)
	}
	b.WriteString(res.Text)
	return openai.EstimateTokens(b.String())
}
