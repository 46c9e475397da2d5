package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/modules/tutor/steps"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/summit-backend/internal/pkg/errors"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/alert"
	"github.com/yungbote/summit-backend/internal/platform/openai"
	"github.com/yungbote/summit-backend/internal/services"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI     openai.Client
	Repos  *repos.Repos
	Notify services.TutorNotifier
	Alert  alert.Alerter
	Codec  *mediacodec.Codec
	Scorer steps.Scorer

	Pipeline             steps.Config
	MaxConcurrentThreads int
}

type Usecases struct {
	deps UsecasesDeps
	orch *steps.Orchestrator
}

func New(deps UsecasesDeps) Usecases {
	u := Usecases{deps: deps}
	u.orch = steps.NewOrchestrator(u.stepDeps(), deps.MaxConcurrentThreads)
	return u
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	u.orch = steps.NewOrchestrator(u.stepDeps(), u.deps.MaxConcurrentThreads)
	return u
}

type (
	RespondInput  = steps.RespondInput
	RespondOutput = steps.RespondOutput

	StartThreadInput  = steps.StartThreadInput
	StartThreadOutput = steps.StartThreadOutput

	ThreadResult = steps.ThreadResult
)

type PostMessageInput struct {
	ThreadID uuid.UUID
	UserID   uuid.UUID
	Content  string
}

func (u Usecases) stepDeps() steps.Deps {
	d := steps.Deps{
		DB:     u.deps.DB,
		Log:    u.deps.Log,
		AI:     u.deps.AI,
		Notify: u.deps.Notify,
		Alert:  u.deps.Alert,
		Codec:  u.deps.Codec,
		Scorer: u.deps.Scorer,
		Config: u.deps.Pipeline,
	}
	if u.deps.Repos != nil {
		d = d.WithRepos(u.deps.Repos)
	}
	return d
}

func (u Usecases) Respond(ctx context.Context, in RespondInput) (RespondOutput, error) {
	return steps.Respond(ctx, u.stepDeps(), in)
}

func (u Usecases) StartThread(ctx context.Context, in StartThreadInput) (StartThreadOutput, error) {
	return steps.StartThread(ctx, u.stepDeps(), in)
}

// RespondToMessages runs the pipeline for every thread touched by msgs and
// waits for all of them.
func (u Usecases) RespondToMessages(ctx context.Context, msgs []*types.Message) []ThreadResult {
	return u.orch.Run(ctx, msgs)
}

// GetThread returns the thread if userID owns it.
func (u Usecases) GetThread(ctx context.Context, userID, threadID uuid.UUID) (*types.Thread, error) {
	th, err := u.deps.Repos.Thread.GetByID(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		return nil, err
	}
	if th.UserID != userID {
		return nil, fmt.Errorf("thread %s: %w", threadID, pkgerrors.ErrNotFound)
	}
	return th, nil
}

func (u Usecases) ListMessages(ctx context.Context, userID, threadID uuid.UUID) ([]*types.Message, error) {
	if _, err := u.GetThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return u.deps.Repos.Message.ListByThread(dbctx.Context{Ctx: ctx}, threadID)
}

// PostUserMessage stores a student message and schedules a reply without
// waiting for it.
func (u Usecases) PostUserMessage(ctx context.Context, in PostMessageInput) (*types.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("empty message: %w", pkgerrors.ErrInvalidArgument)
	}
	th, err := u.GetThread(ctx, in.UserID, in.ThreadID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	next, err := u.deps.Repos.Thread.GetSuccessor(dbc, th.ID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		return nil, fmt.Errorf("thread %s continues in %s: %w", th.ID, next.ID, pkgerrors.ErrConflict)
	}

	rows, err := u.deps.Repos.Message.Create(dbc, []*types.Message{{
		ActivityID: th.ActivityID,
		UserID:     th.UserID,
		ThreadID:   th.ID,
		SenderRole: types.SenderUser,
		Content:    content,
		Status:     types.MessageCompleteWithoutViewPieces,
	}})
	if err != nil {
		return nil, err
	}
	msg := rows[0]
	u.deps.Notify.MessagesUpserted(ctx, th.UserID, msg)
	u.orch.Trigger(ctx, []*types.Message{msg})
	return msg, nil
}

// RespondLatest re-drives the pipeline for the newest user message of a
// thread.
func (u Usecases) RespondLatest(ctx context.Context, threadID uuid.UUID) (RespondOutput, error) {
	msg, err := u.deps.Repos.Message.LatestUserMessage(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		return RespondOutput{}, err
	}
	res := u.orch.Run(ctx, []*types.Message{msg})
	if len(res) == 0 {
		return RespondOutput{}, fmt.Errorf("respond latest: no run for thread %s", threadID)
	}
	return res[0].Output, res[0].Err
}
