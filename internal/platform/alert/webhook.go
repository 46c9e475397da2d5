package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
	"github.com/yungbote/summit-backend/internal/pkg/httpx"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type Webhook struct {
	url    string
	log    *logger.Logger
	client *http.Client
	limit  *limiter
	retry  httpx.Policy
}

func NewWebhook(log *logger.Logger, url string, minInterval time.Duration) *Webhook {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return &Webhook{
		url:    url,
		log:    log.With("alerter", "webhook"),
		client: &http.Client{Timeout: 5 * time.Second},
		limit:  newLimiter(minInterval),
		retry:  httpx.Policy{MaxRetries: 2, Backoff: 250 * time.Millisecond, MaxWait: 2 * time.Second, Jitter: 0.2},
	}
}

func (w *Webhook) Alert(ctx context.Context, a Alert) {
	if w == nil || !w.limit.allow(a.Title) {
		return
	}
	body, err := json.Marshal(enrich(ctx, a))
	if err != nil {
		w.log.Warn("alert payload encode failed", "error", err, "title", a.Title)
		return
	}
	p := w.retry
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		w.log.Warn("alert post retrying", "title", a.Title, "attempt", attempt, "sleep", wait.String(), "error", err)
	}
	resp, err := httpx.Do(ctxutil.Detached(ctx), p, func(ctx context.Context) (*http.Response, error) {
		return w.post(ctx, body)
	})
	if err != nil {
		countAlert("webhook", "error")
		w.log.Warn("alert post failed", "error", err, "title", a.Title)
		return
	}
	countAlert("webhook", "sent")
	w.log.Info("alert sent", "title", a.Title, "status", resp.StatusCode)
}

func (w *Webhook) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}
