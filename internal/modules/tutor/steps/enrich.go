package steps

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/observability"
)

// EnrichInput is one generated attempt together with the thread history that
// preceded it. Prior never contains earlier attempts of the same turn.
type EnrichInput struct {
	Thread  *types.Thread
	Message *types.Message
	Prior   []*types.Message
}

func (in EnrichInput) validate() error {
	if in.Thread == nil || in.Message == nil {
		return fmt.Errorf("missing thread or message")
	}
	return nil
}

func (in EnrichInput) transcript() []*types.Message {
	out := make([]*types.Message, 0, len(in.Prior)+1)
	out = append(out, in.Prior...)
	return append(out, in.Message)
}

type EnrichOutput struct {
	Completion CompletionOutput
	Media      MediaOutput
	Flag       FlagOutput
}

// Enrich runs the three analyzers concurrently and waits for all of them.
func Enrich(ctx context.Context, deps Deps, in EnrichInput) (EnrichOutput, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.enrich")
	defer span.End()

	var (
		out EnrichOutput
		g   errgroup.Group
	)
	g.Go(func() error {
		res, err := InjectCompletions(ctx, deps, in)
		out.Completion = res
		return err
	})
	g.Go(func() error {
		res, err := InjectMedia(ctx, deps, in)
		out.Media = res
		return err
	})
	g.Go(func() error {
		res, err := InjectFlag(ctx, deps, in)
		out.Flag = res
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return out, err
	}
	return out, nil
}
