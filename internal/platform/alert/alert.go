// Package alert delivers operational alerts to humans. Delivery is best
// effort: failures are logged and never returned to the pipeline.
package alert

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
)

type Alert struct {
	Title   string
	Details map[string]any
}

type Alerter interface {
	Alert(ctx context.Context, a Alert)
}

type Nop struct{}

func (Nop) Alert(context.Context, Alert) {}

type Multi []Alerter

func (m Multi) Alert(ctx context.Context, a Alert) {
	for _, al := range m {
		if al != nil {
			al.Alert(ctx, a)
		}
	}
}

// New returns the configured sinks combined, or Nop when there are none.
func New(sinks ...Alerter) Alerter {
	out := Multi{}
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	default:
		return out
	}
}

// limiter suppresses repeats of the same title inside minInterval.
type limiter struct {
	mu          sync.Mutex
	last        map[string]time.Time
	minInterval time.Duration
	now         func() time.Time
}

func newLimiter(minInterval time.Duration) *limiter {
	return &limiter{last: map[string]time.Time{}, minInterval: minInterval, now: time.Now}
}

func (l *limiter) allow(key string) bool {
	if l == nil || l.minInterval <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if last, ok := l.last[key]; ok && now.Sub(last) < l.minInterval {
		return false
	}
	l.last[key] = now
	return true
}

func enrich(ctx context.Context, a Alert) map[string]any {
	payload := map[string]any{
		"title":     strings.TrimSpace(a.Title),
		"details":   a.Details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			payload["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			payload["request_id"] = td.RequestID
		}
	}
	return payload
}

func countAlert(sink, status string) {
	if m := observability.Current(); m != nil {
		m.IncAlert(sink, status)
	}
}
