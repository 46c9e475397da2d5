package steps

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/summit-backend/internal/data/repos/testutil"
	repos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/pkg/dbctx"
	"github.com/yungbote/summit-backend/internal/platform/alert"
	"github.com/yungbote/summit-backend/internal/platform/openai"
	"github.com/yungbote/summit-backend/internal/platform/openai/openaitest"
)

type recordedEvent struct {
	Kind    string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNotifier) add(kind string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Kind: kind, Payload: payload})
}

func (r *recordingNotifier) MessagesUpserted(_ context.Context, _ uuid.UUID, msgs ...*types.Message) {
	r.add("messages", msgs)
}

func (r *recordingNotifier) MessageDelta(_ context.Context, _, _, _ uuid.UUID, delta string) {
	r.add("delta", delta)
}

func (r *recordingNotifier) DescendantsDeleted(_ context.Context, _ uuid.UUID, del types.Deletion) {
	r.add("deleted", del)
}

func (r *recordingNotifier) CompletionsUpserted(_ context.Context, _ uuid.UUID, rows []*types.Completion) {
	r.add("completions", rows)
}

func (r *recordingNotifier) ViewPiecesUpserted(_ context.Context, _, _ uuid.UUID, pieces []*types.ViewPiece) {
	r.add("view_pieces", pieces)
}

func (r *recordingNotifier) FlagsUpserted(_ context.Context, _ uuid.UUID, flags []*types.Flag) {
	r.add("flags", flags)
}

func (r *recordingNotifier) ThreadsUpserted(_ context.Context, _ uuid.UUID, threads ...*types.Thread) {
	r.add("threads", threads)
}

func (r *recordingNotifier) ThreadWrapped(_ context.Context, wrap types.ThreadWrap) {
	r.add("wrap", wrap)
}

func (r *recordingNotifier) of(kind string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (r *recordingNotifier) deletions() []types.Deletion {
	var out []types.Deletion
	for _, p := range r.of("deleted") {
		out = append(out, p.(types.Deletion))
	}
	return out
}

func (r *recordingNotifier) wraps() []types.ThreadWrap {
	var out []types.ThreadWrap
	for _, p := range r.of("wrap") {
		out = append(out, p.(types.ThreadWrap))
	}
	return out
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (r *recordingAlerter) Alert(_ context.Context, a alert.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingAlerter) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a.Title)
	}
	return out
}

type replyFn func(call int) (string, error)

type streamFn func(call int) ([]string, *openai.Usage, error)

// harness wires the pipeline against sqlite, a scripted model, and recording
// collaborators. Analyzer replies are routed by prompt.
type harness struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	repos  *repos.Repos
	ai     *openaitest.Fake
	notify *recordingNotifier
	alerts *recordingAlerter
	deps   Deps

	activity *types.Activity
	items    []*types.Item
	thread   *types.Thread

	mu      sync.Mutex
	calls   map[string]int
	replies map[string]replyFn
	stream  streamFn
}

func newHarness(t *testing.T, itemCount int) *harness {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	h := &harness{
		t:      t,
		ctx:    ctx,
		db:     db,
		repos:  repos.NewRepos(db, log),
		notify: &recordingNotifier{},
		alerts: &recordingAlerter{},
		calls:  map[string]int{},
		replies: map[string]replyFn{
			"completion": constReply("<none></none>"),
			"media":      constReply("<no-media></no-media>"),
			"flag":       constReply("<no-flags></no-flags>"),
			"judge":      constReply("REMOVAL_OK"),
		},
		stream: func(int) ([]string, *openai.Usage, error) {
			return []string{"Great", " answer", "!"}, &openai.Usage{TotalTokens: 100}, nil
		},
	}
	h.ai = &openaitest.Fake{
		StreamFn: func(_ context.Context, _ openai.ChatRequest) ([]string, *openai.Usage, error) {
			h.mu.Lock()
			h.calls["stream"]++
			n, fn := h.calls["stream"], h.stream
			h.mu.Unlock()
			return fn(n)
		},
		CompleteFn: func(_ context.Context, req openai.ChatRequest) (string, error) {
			name := analyzerOf(req)
			h.mu.Lock()
			h.calls[name]++
			n, fn := h.calls[name], h.replies[name]
			h.mu.Unlock()
			if fn == nil {
				t.Errorf("unexpected model call for %q", name)
				return "", nil
			}
			return fn(n)
		},
	}

	h.deps = Deps{
		Log:    log,
		AI:     h.ai,
		Notify: h.notify,
		Alert:  h.alerts,
		Codec:  mediacodec.MustNew(mediacodec.Config{ImageBase: 0, VideoBase: 1000, Span: 1000}),
		Scorer: NewDefaultScorer(log, nil, ""),
		Config: Config{TutorModel: "tutor", AnalyzerModel: "analyzer", StreamInterval: DefaultStreamInterval},
	}.WithRepos(h.repos)

	h.activity = testutil.SeedActivity(t, ctx, db, "Fractions")
	h.items = testutil.SeedItems(t, ctx, db, h.activity.ID, itemCount)
	h.thread = testutil.SeedThread(t, ctx, db, h.activity.ID, uuid.New())
	testutil.SeedMessage(t, ctx, db, h.thread, types.SenderSystem, "You are a tutor.", types.MessageCompleteWithoutViewPieces)
	testutil.SeedMessage(t, ctx, db, h.thread, types.SenderUser, "Is 1/2 bigger than 1/3?", types.MessageCompleteWithoutViewPieces)
	return h
}

func constReply(s string) replyFn {
	return func(int) (string, error) { return s, nil }
}

func sequence(replies ...string) replyFn {
	return func(n int) (string, error) {
		if n > len(replies) {
			n = len(replies)
		}
		return replies[n-1], nil
	}
}

func analyzerOf(req openai.ChatRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	p := req.Messages[0].Content
	switch {
	case strings.Contains(p, "which activity"):
		return "completion"
	case strings.Contains(p, "so that media"):
		return "media"
	case strings.Contains(p, "tutoring process itself"):
		return "flag"
	case strings.Contains(p, "REMOVAL_OK"):
		return "judge"
	}
	return ""
}

func (h *harness) reply(analyzer string, fn replyFn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replies[analyzer] = fn
}

func (h *harness) setStream(fn streamFn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stream = fn
}

func (h *harness) callCount(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[name]
}

func (h *harness) messages() []*types.Message {
	h.t.Helper()
	var out []*types.Message
	if err := h.db.Where("thread_id = ?", h.thread.ID).Order("seq ASC").Find(&out).Error; err != nil {
		h.t.Fatalf("list messages: %v", err)
	}
	return out
}

func (h *harness) assistantMessages() []*types.Message {
	var out []*types.Message
	for _, m := range h.messages() {
		if m.SenderRole == types.SenderAssistant {
			out = append(out, m)
		}
	}
	return out
}

func (h *harness) count(model any, where string, args ...any) int64 {
	h.t.Helper()
	var n int64
	if err := h.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		h.t.Fatalf("count: %v", err)
	}
	return n
}

// attemptInput creates an assistant attempt with content and returns the
// analyzer input for it.
func (h *harness) attemptInput(content string) EnrichInput {
	h.t.Helper()
	prior := h.messages()
	msg := testutil.SeedMessage(h.t, h.ctx, h.db, h.thread, types.SenderAssistant, content, types.MessageIncomplete)
	return EnrichInput{Thread: h.thread, Message: msg, Prior: prior}
}

func dbcOf(h *harness) dbctx.Context {
	return dbctx.Context{Ctx: h.ctx}
}

func seedImage(t *testing.T, h *harness, numericID int) *types.InfoImage {
	t.Helper()
	return testutil.SeedImage(t, h.ctx, h.db, h.activity.ID, numericID)
}
