package steps

import (
	"context"
	"fmt"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
)

const completionAnalyzer = "completion"

type CompletionOutput struct {
	Created []*types.Completion
	// ActivityCompleted is set when this attempt finished the last open item.
	ActivityCompleted bool
}

// InjectCompletions records items the student finished in this attempt. Only
// items that were incomplete before the attempt are recorded.
func InjectCompletions(ctx context.Context, deps Deps, in EnrichInput) (CompletionOutput, error) {
	out := CompletionOutput{}
	if err := in.validate(); err != nil {
		return out, fmt.Errorf("inject completions: %w", err)
	}
	deps.Config = deps.Config.withDefaults()
	dbc := dbctx.Context{Ctx: ctx}

	items, err := deps.Items.ListByActivity(dbc, in.Thread.ActivityID)
	if err != nil {
		return out, fmt.Errorf("inject completions: list items: %w", err)
	}
	if len(items) == 0 {
		return out, nil
	}
	existing, err := deps.Completions.ListByActivityUser(dbc, in.Thread.ActivityID, in.Thread.UserID)
	if err != nil {
		return out, fmt.Errorf("inject completions: list completions: %w", err)
	}
	completed := make(map[string]bool, len(existing))
	for _, c := range existing {
		completed[c.ItemID.String()] = true
	}

	prompt := fmt.Sprintf(completionPrompt, renderItems(items, completed), renderTranscript(in.transcript()))
	res, err := runAnalyzer(ctx, deps, completionAnalyzer, deps.Config.AnalyzerModel, prompt,
		func(reply string) (tagparse.CompletionResult, error) {
			return tagparse.ParseCompletions(reply, len(items))
		})
	if err != nil {
		return out, err
	}

	var rows []*types.Completion
	for _, n := range res.Complete {
		item := items[n-1]
		if completed[item.ID.String()] {
			continue
		}
		completed[item.ID.String()] = true
		rows = append(rows, &types.Completion{
			ActivityID: in.Thread.ActivityID,
			UserID:     in.Thread.UserID,
			ItemID:     item.ID,
			MessageID:  in.Message.ID,
		})
	}
	if len(rows) == 0 {
		return out, nil
	}
	created, err := deps.Completions.Create(dbc, rows)
	if err != nil {
		return out, fmt.Errorf("inject completions: persist: %w", err)
	}
	deps.Notify.CompletionsUpserted(ctx, in.Thread.UserID, created)

	out.Created = created
	out.ActivityCompleted = true
	for _, it := range items {
		if !completed[it.ID.String()] {
			out.ActivityCompleted = false
			break
		}
	}
	return out, nil
}
