// Package openaitest provides a scripted model client for tests.
package openaitest

import (
	"context"
	"sync"

	"github.com/yungbote/summit-backend/internal/platform/openai"
)

// Fake answers StreamChat and Complete from caller-supplied functions and
// records every request.
type Fake struct {
	StreamFn   func(ctx context.Context, req openai.ChatRequest) ([]string, *openai.Usage, error)
	CompleteFn func(ctx context.Context, req openai.ChatRequest) (string, error)

	mu       sync.Mutex
	streams  []openai.ChatRequest
	complete []openai.ChatRequest
}

var _ openai.Client = (*Fake)(nil)

func (f *Fake) StreamChat(ctx context.Context, req openai.ChatRequest) (<-chan openai.StreamEvent, error) {
	f.mu.Lock()
	f.streams = append(f.streams, req)
	f.mu.Unlock()

	var (
		deltas []string
		usage  *openai.Usage
		err    error
	)
	if f.StreamFn != nil {
		deltas, usage, err = f.StreamFn(ctx, req)
	}
	out := make(chan openai.StreamEvent, len(deltas)+1)
	for _, d := range deltas {
		out <- openai.StreamEvent{Delta: d}
	}
	switch {
	case err != nil:
		out <- openai.StreamEvent{Err: err}
	case usage != nil:
		out <- openai.StreamEvent{Usage: usage}
	}
	close(out)
	return out, nil
}

func (f *Fake) Complete(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.mu.Lock()
	f.complete = append(f.complete, req)
	f.mu.Unlock()
	if f.CompleteFn == nil {
		return "", nil
	}
	return f.CompleteFn(ctx, req)
}

func (f *Fake) StreamRequests() []openai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openai.ChatRequest(nil), f.streams...)
}

func (f *Fake) CompleteRequests() []openai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openai.ChatRequest(nil), f.complete...)
}
