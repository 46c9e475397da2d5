package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

func TestSendPostsMailAndRetriesServerErrors(t *testing.T) {
	var calls int32
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != "/v3/mail/send" || r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "m1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "ops@example.com", MaxRetries: 2, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "oncall@example.com"}},
		Subject: "Pipeline aborted",
		Text:    "details",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "m1" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("unexpected result %+v after %d calls", res, calls)
	}
	if got.From.Email != "ops@example.com" || got.Subject != "Pipeline aborted" || len(got.Personalizations) != 1 {
		t.Fatalf("unexpected wire payload: %+v", got)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "a@b.c", MaxRetries: 3})
	_, err := c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", Text: "t"})
	if err == nil || err.Error() != "sendgrid http 400: bad from" {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("client errors should not retry, calls=%d", calls)
	}
}
