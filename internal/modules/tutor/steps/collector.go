package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/summit-backend/internal/platform/openai"
)

type CollectOptions struct {
	// Interval is the minimum time between two delta publishes.
	Interval time.Duration
	// Publish receives each flushed chunk, in order, off the reading goroutine.
	Publish func(chunk string)
	Now     func() time.Time
}

type CollectResult struct {
	Text  string
	Usage *openai.Usage
}

// CollectStream reads events until the channel closes. Deltas are appended to
// the full text and to a pending buffer; the pending buffer is flushed to
// Publish whenever more than Interval has passed since the last flush, and
// once more at the end. Concatenating every published chunk yields Text.
// A stream that ends after ctx is done is reported as an error, never as a
// complete reply.
func CollectStream(ctx context.Context, events <-chan openai.StreamEvent, opts CollectOptions) (CollectResult, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pub := newPublisher(opts.Publish)
	defer pub.close()

	var (
		full, pending strings.Builder
		usage         *openai.Usage
		streamErr     error
	)
	last := now()
	for ev := range events {
		switch {
		case ev.Err != nil:
			streamErr = ev.Err
		case ev.Usage != nil:
			usage = ev.Usage
		case ev.Delta != "":
			full.WriteString(ev.Delta)
			pending.WriteString(ev.Delta)
			if t := now(); t.Sub(last) > opts.Interval {
				pub.push(pending.String())
				pending.Reset()
				last = t
			}
		}
	}
	if streamErr == nil && ctx.Err() != nil {
		streamErr = fmt.Errorf("stream cut short: %w", ctx.Err())
	}
	if streamErr != nil {
		return CollectResult{Text: full.String(), Usage: usage}, streamErr
	}
	if pending.Len() > 0 {
		pub.push(pending.String())
	}
	return CollectResult{Text: full.String(), Usage: usage}, nil
}

// publisher hands chunks to fn from a single goroutine so the reader never
// waits on delivery while order is kept.
type publisher struct {
	fn     func(string)
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []string
	closed bool
	done   chan struct{}
}

func newPublisher(fn func(string)) *publisher {
	p := &publisher{fn: fn, done: make(chan struct{})}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *publisher) push(chunk string) {
	if p.fn == nil || chunk == "" {
		return
	}
	p.mu.Lock()
	p.queue = append(p.queue, chunk)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *publisher) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		next := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		p.fn(next)
	}
}

// close waits until every queued chunk has been delivered.
func (p *publisher) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	<-p.done
}
