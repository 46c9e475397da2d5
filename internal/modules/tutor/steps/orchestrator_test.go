package steps

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/data/repos/testutil"
	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/platform/openai"
)

func TestOrchestratorRunsOncePerThread(t *testing.T) {
	h := newHarness(t, 1)
	other := testutil.SeedThread(t, h.ctx, h.db, h.activity.ID, uuid.New())
	testutil.SeedMessage(t, h.ctx, h.db, other, types.SenderSystem, "You are a tutor.", types.MessageCompleteWithoutViewPieces)
	u2 := testutil.SeedMessage(t, h.ctx, h.db, other, types.SenderUser, "hi", types.MessageCompleteWithoutViewPieces)

	var userMsgs []*types.Message
	for _, m := range h.messages() {
		if m.SenderRole == types.SenderUser {
			userMsgs = append(userMsgs, m, m)
		}
	}
	userMsgs = append(userMsgs, u2)

	o := NewOrchestrator(h.deps, 0)
	results := o.Run(h.ctx, userMsgs)
	if len(results) != 2 {
		t.Fatalf("want 2 thread runs, got %d", len(results))
	}
	if results[0].ThreadID != h.thread.ID || results[1].ThreadID != other.ID {
		t.Fatalf("results out of order: %+v", results)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("thread %s failed: %v", r.ThreadID, r.Err)
		}
	}
	if got := len(h.ai.StreamRequests()); got != 2 {
		t.Fatalf("stream calls: got=%d want=2", got)
	}
}

func TestOrchestratorIsolatesFailures(t *testing.T) {
	h := newHarness(t, 1)
	missing := &types.Message{ID: uuid.New(), ThreadID: uuid.New(), UserID: uuid.New(), ActivityID: h.activity.ID}
	good := &types.Message{ThreadID: h.thread.ID, UserID: h.thread.UserID, ActivityID: h.activity.ID}

	results := NewOrchestrator(h.deps, 1).Run(h.ctx, []*types.Message{missing, good})
	if len(results) != 2 {
		t.Fatalf("results: %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatalf("missing thread should fail")
	}
	if results[1].Err != nil || results[1].Output.Message == nil {
		t.Fatalf("sibling should succeed: %+v", results[1])
	}
}

func TestOrchestratorBoundsConcurrentThreads(t *testing.T) {
	h := newHarness(t, 1)
	msgs := []*types.Message{{ThreadID: h.thread.ID, UserID: h.thread.UserID, ActivityID: h.activity.ID}}
	for i := 0; i < 3; i++ {
		th := testutil.SeedThread(t, h.ctx, h.db, h.activity.ID, uuid.New())
		testutil.SeedMessage(t, h.ctx, h.db, th, types.SenderSystem, "You are a tutor.", types.MessageCompleteWithoutViewPieces)
		testutil.SeedMessage(t, h.ctx, h.db, th, types.SenderUser, "hi", types.MessageCompleteWithoutViewPieces)
		msgs = append(msgs, &types.Message{ThreadID: th.ID, UserID: th.UserID, ActivityID: h.activity.ID})
	}

	var active, peak int32
	h.setStream(func(int) ([]string, *openai.Usage, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return []string{"Good."}, &openai.Usage{TotalTokens: 10}, nil
	})

	results := NewOrchestrator(h.deps, 2).Run(h.ctx, msgs)
	if len(results) != 4 {
		t.Fatalf("results: %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("thread %s failed: %v", r.ThreadID, r.Err)
		}
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Fatalf("concurrent runs exceeded limit: peak=%d", p)
	}
}

func TestThreadLocksSerializeSameThread(t *testing.T) {
	locks := newThreadLocks()
	id := uuid.New()
	var (
		active, peak int32
		wg           sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(id)
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("same-thread runs overlapped: peak=%d", peak)
	}
	if len(locks.m) != 0 {
		t.Fatalf("lock entries leaked: %d", len(locks.m))
	}
}
