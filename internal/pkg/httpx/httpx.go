// Package httpx is the retry policy shared by outbound notification clients.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusError is a non-2xx response from a sink that has no richer error type.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether a failed call may succeed on another try.
// A cancelled caller is never retried.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

// Policy bounds how often and how long a sink retries.
type Policy struct {
	MaxRetries int
	// Backoff is the first wait; it doubles after every retry.
	Backoff time.Duration
	// MaxWait caps any single wait, including one asked for by Retry-After.
	MaxWait time.Duration
	// Jitter spreads each wait by +/- this fraction.
	Jitter float64
	// OnRetry is told about each retry before the wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func DefaultPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, Backoff: time.Second, MaxWait: 10 * time.Second, Jitter: 0.2}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of retries. fn may return its response alongside an error
// so a Retry-After header can set the next wait.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	backoff := p.Backoff
	for attempt := 0; ; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		if attempt >= p.MaxRetries || !IsRetryableError(err) || ctx.Err() != nil {
			return resp, err
		}
		wait := jitter(RetryAfterDuration(resp, backoff, p.MaxWait), p.Jitter)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, wait, err)
		}
		if serr := Sleep(ctx, wait); serr != nil {
			return resp, errors.Join(err, serr)
		}
		backoff *= 2
	}
}

// RetryAfterDuration prefers a Retry-After seconds header over fallback, capped
// at max when max > 0.
func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	wait := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && wait > max {
		wait = max
	}
	return wait
}

func jitter(base time.Duration, frac float64) time.Duration {
	if base <= 0 || frac <= 0 {
		return base
	}
	delta := float64(base) * frac
	low := float64(base) - delta
	return time.Duration(low + rand.Float64()*2*delta)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
