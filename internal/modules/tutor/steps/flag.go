package steps

import (
	"context"
	"fmt"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
)

const flagAnalyzer = "flag"

type FlagOutput struct {
	Flag *types.Flag
}

// InjectFlag raises at most one flag when the tutor's new message admits a
// defect in the tutoring itself. Student confusion is never flagged.
func InjectFlag(ctx context.Context, deps Deps, in EnrichInput) (FlagOutput, error) {
	out := FlagOutput{}
	if err := in.validate(); err != nil {
		return out, fmt.Errorf("inject flag: %w", err)
	}
	deps.Config = deps.Config.withDefaults()
	prompt := fmt.Sprintf(flagPrompt, renderMarkedTranscript(in.transcript()))
	res, err := runAnalyzer(ctx, deps, flagAnalyzer, deps.Config.AnalyzerModel, prompt, tagparse.ParseFlag)
	if err != nil {
		return out, err
	}
	if !res.Flagged {
		return out, nil
	}
	row := &types.Flag{
		ActivityID: in.Thread.ActivityID,
		UserID:     in.Thread.UserID,
		MessageID:  in.Message.ID,
		ThreadID:   in.Thread.ID,
		Reason:     res.Reason,
	}
	if err := deps.Flags.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return out, fmt.Errorf("inject flag: persist: %w", err)
	}
	deps.Log.Info("Flag raised", "thread_id", in.Thread.ID, "message_id", in.Message.ID)
	deps.Notify.FlagsUpserted(ctx, in.Thread.UserID, []*types.Flag{row})
	out.Flag = row
	return out, nil
}
