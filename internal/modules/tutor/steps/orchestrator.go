package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
)

type threadKey struct {
	UserID     uuid.UUID
	ActivityID uuid.UUID
	ThreadID   uuid.UUID
}

// ThreadResult is the outcome of one per-thread run.
type ThreadResult struct {
	ThreadID uuid.UUID
	Output   RespondOutput
	Err      error
}

// Orchestrator fans a batch of new user messages out into one pipeline run per
// thread. Runs for the same thread are serialized in-process.
type Orchestrator struct {
	deps  Deps
	limit int
	locks *threadLocks
}

// NewOrchestrator bounds concurrent runs per batch when maxConcurrent > 0.
func NewOrchestrator(deps Deps, maxConcurrent int) *Orchestrator {
	return &Orchestrator{deps: deps, limit: maxConcurrent, locks: newThreadLocks()}
}

// Run groups msgs by (user, activity, thread) and runs each group concurrently.
// A failing group is logged and never affects its siblings. Run returns once
// every group has finished, in order of first appearance.
func (o *Orchestrator) Run(ctx context.Context, msgs []*types.Message) []ThreadResult {
	var keys []threadKey
	seen := map[threadKey]bool{}
	for _, m := range msgs {
		if m == nil || m.ThreadID == uuid.Nil {
			continue
		}
		k := threadKey{UserID: m.UserID, ActivityID: m.ActivityID, ThreadID: m.ThreadID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	results := make([]ThreadResult, len(keys))
	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, k := range keys {
		g.Go(func() error {
			results[i] = o.runThread(ctx, k)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Trigger starts Run in the background, detached from ctx cancellation.
func (o *Orchestrator) Trigger(ctx context.Context, msgs []*types.Message) {
	bg := ctxutil.Detached(ctx)
	go o.Run(bg, msgs)
}

func (o *Orchestrator) runThread(ctx context.Context, k threadKey) (res ThreadResult) {
	res.ThreadID = k.ThreadID
	log := o.deps.Log.With("thread_id", k.ThreadID, "user_id", k.UserID, "activity_id", k.ActivityID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Tutor pipeline panicked", "panic", r)
			res.Err = &panicError{value: r}
		}
	}()

	unlock := o.locks.lock(k.ThreadID)
	defer unlock()

	out, err := Respond(ctx, o.deps, RespondInput{ThreadID: k.ThreadID})
	if err != nil {
		log.Error("Tutor pipeline failed", "error", err)
	}
	res.Output, res.Err = out, err
	return res
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("tutor pipeline panic: %v", e.value) }

type threadLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{m: map[uuid.UUID]*threadLock{}}
}

func (l *threadLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &threadLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
