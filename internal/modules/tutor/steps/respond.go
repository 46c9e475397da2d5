package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/platform/alert"
)

type RespondInput struct {
	ThreadID uuid.UUID
}

type RespondOutput struct {
	Message  *types.Message
	Attempts int
	Score    int
	Finalize FinalizeOutput
}

type scored struct {
	attempt  *Attempt
	enriched EnrichOutput
	score    int
}

// Respond produces one accepted assistant turn for a thread. Each cycle
// generates, enriches, and scores an attempt. A cycle replaces the best so far
// only when it scores strictly lower; the loser's rows are deleted and the
// deletion published before anything else happens. The loop stops at score 0
// or after MaxResponseAttempts cycles, and the best attempt is finalized.
func Respond(ctx context.Context, deps Deps, in RespondInput) (RespondOutput, error) {
	out := RespondOutput{}
	if err := deps.validate(); err != nil {
		return out, err
	}
	deps.Config = deps.Config.withDefaults()
	if in.ThreadID == uuid.Nil {
		return out, fmt.Errorf("tutor respond: missing thread_id")
	}
	ctx, span := observability.StartSpan(ctx, "tutor.respond", attribute.String("thread_id", in.ThreadID.String()))
	defer span.End()
	start := time.Now()

	thread, err := deps.Threads.GetByID(dbctx.Context{Ctx: ctx}, in.ThreadID)
	if err != nil {
		return out, fmt.Errorf("tutor respond: load thread: %w", err)
	}
	log := deps.Log.With("thread_id", thread.ID, "activity_id", thread.ActivityID)

	var (
		best     *scored
		attempts = map[uuid.UUID]bool{}
	)
	abort := func(cur *Attempt, reason string, cause error) (RespondOutput, error) {
		var ids []uuid.UUID
		if best != nil {
			ids = append(ids, best.attempt.Message.ID)
		}
		if cur != nil && cur.Message != nil && (best == nil || cur != best.attempt) {
			ids = append(ids, cur.Message.ID)
		}
		if err := rollback(ctx, deps, thread, ids, reason); err != nil {
			log.Error("Rollback after abort failed", "error", err)
			cause = errors.Join(cause, err)
		}
		span.RecordError(cause)
		observability.Current().ObserveTurn("aborted", time.Since(start))
		deps.alerter().Alert(ctx, alert.Alert{
			Title: "Tutor turn aborted",
			Details: map[string]any{
				"thread_id": thread.ID.String(),
				"reason":    reason,
				"error":     cause.Error(),
			},
		})
		return out, fmt.Errorf("tutor respond: %s: %w", reason, cause)
	}

	for n := 1; n <= deps.Config.MaxResponseAttempts; n++ {
		out.Attempts = n
		att, err := generate(ctx, deps, thread, attempts, n)
		if att != nil && att.Message != nil {
			attempts[att.Message.ID] = true
		}
		if err != nil {
			return abort(att, "generation", err)
		}

		enriched, err := Enrich(ctx, deps, EnrichInput{Thread: thread, Message: att.Message, Prior: att.Prior})
		if err != nil {
			return abort(att, "enrichment", err)
		}
		score, err := deps.Scorer.Score(ctx, ScoreInput{Base: att.Message, Fragments: enriched.Media.Fragments})
		if err != nil {
			return abort(att, "scoring", err)
		}
		cur := &scored{attempt: att, enriched: enriched, score: score}

		if best == nil || cur.score < best.score {
			if best != nil {
				if err := rollback(ctx, deps, thread, []uuid.UUID{best.attempt.Message.ID}, "superseded"); err != nil {
					return abort(att, "rollback", err)
				}
			}
			best = cur
			observability.Current().ObserveAttempt("adopted", score)
		} else {
			if err := rollback(ctx, deps, thread, []uuid.UUID{att.Message.ID}, "not_improved"); err != nil {
				return abort(att, "rollback", err)
			}
			observability.Current().ObserveAttempt("discarded", score)
		}
		log.Debug("Attempt scored", "attempt", n, "score", score, "best_score", best.score)
		if best.score == 0 {
			break
		}
	}

	fin, err := Finalize(ctx, deps, FinalizeInput{
		Thread:   thread,
		Attempt:  best.attempt,
		Enriched: best.enriched,
		Score:    best.score,
	})
	if err != nil {
		return abort(nil, "finalize", err)
	}
	out.Message = fin.Message
	out.Score = best.score
	out.Finalize = fin
	observability.Current().ObserveTurn("accepted", time.Since(start))
	log.Info("Turn accepted", "message_id", fin.Message.ID, "attempts", out.Attempts, "score", best.score)
	return out, nil
}

// rollback deletes the given attempts with their side effects and publishes
// the deletion.
func rollback(ctx context.Context, deps Deps, thread *types.Thread, ids []uuid.UUID, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	del, err := deps.Attempts.Delete(dbctx.Context{Ctx: ctx}, thread.ID, ids)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if del.Empty() {
		return nil
	}
	observability.Current().IncRollback(reason)
	deps.Notify.DescendantsDeleted(ctx, thread.UserID, del)
	return nil
}
