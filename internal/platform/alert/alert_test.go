package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/sendgrid"
)

type recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recorder) Alert(_ context.Context, a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

type fakeSendGrid struct {
	reqs []sendgrid.SendEmailRequest
}

func (f *fakeSendGrid) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.reqs = append(f.reqs, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

func TestNewCollapsesSinks(t *testing.T) {
	if _, ok := New().(Nop); !ok {
		t.Fatalf("no sinks should give Nop")
	}
	r := &recorder{}
	if got := New(nil, r); got != Alerter(r) {
		t.Fatalf("single sink should be returned as-is")
	}
	r2 := &recorder{}
	New(r, r2).Alert(context.Background(), Alert{Title: "x"})
	if len(r.alerts) != 1 || len(r2.alerts) != 1 {
		t.Fatalf("multi should fan out")
	}
}

func TestWebhookPostsAndRateLimits(t *testing.T) {
	var (
		mu    sync.Mutex
		posts []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		posts = append(posts, body)
		mu.Unlock()
	}))
	defer srv.Close()

	hook := NewWebhook(logger.Nop(), srv.URL, time.Hour)
	ctx := context.Background()
	hook.Alert(ctx, Alert{Title: "Analyzer failed", Details: map[string]any{"analyzer": "flag"}})
	hook.Alert(ctx, Alert{Title: "Analyzer failed"})
	hook.Alert(ctx, Alert{Title: "Pipeline aborted"})

	mu.Lock()
	defer mu.Unlock()
	if len(posts) != 2 {
		t.Fatalf("want 2 posts after rate limiting, got %d", len(posts))
	}
	if posts[0]["title"] != "Analyzer failed" {
		t.Fatalf("unexpected payload: %#v", posts[0])
	}
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	NewWebhook(logger.Nop(), srv.URL, 0).Alert(context.Background(), Alert{Title: "Tutor turn aborted"})

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("want one retry after 503, got %d calls", calls)
	}
}

func TestWebhookWithoutURLIsNil(t *testing.T) {
	if NewWebhook(logger.Nop(), "  ", 0) != nil {
		t.Fatalf("empty url should disable the webhook")
	}
}

func TestEmailSendsToRecipients(t *testing.T) {
	sg := &fakeSendGrid{}
	e := NewEmail(logger.Nop(), sg, []string{"a@example.com", " "}, 0)
	e.Alert(context.Background(), Alert{Title: "Pipeline aborted", Details: map[string]any{"thread_id": "t"}})
	if len(sg.reqs) != 1 {
		t.Fatalf("want one email, got %d", len(sg.reqs))
	}
	req := sg.reqs[0]
	if len(req.To) != 1 || req.To[0].Email != "a@example.com" || req.Subject != "[summit] Pipeline aborted" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestLimiterWindow(t *testing.T) {
	l := newLimiter(time.Minute)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }
	if !l.allow("k") || l.allow("k") {
		t.Fatalf("second call inside window should be suppressed")
	}
	now = now.Add(2 * time.Minute)
	if !l.allow("k") {
		t.Fatalf("call after window should pass")
	}
}
