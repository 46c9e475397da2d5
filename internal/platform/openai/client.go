package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	Role    Role
	Content string
}

type ChatRequest struct {
	Model    string
	Messages []ChatMessage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamEvent carries one content delta, the final usage, or a terminal error.
type StreamEvent struct {
	Delta string
	Usage *Usage
	Err   error
}

// Client is the model boundary used by the tutoring pipeline.
type Client interface {
	// StreamChat closes the returned channel after the last event.
	StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
	// Complete is a single-shot call returning the whole reply.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// CallError wraps every provider failure.
type CallError struct {
	Op         string
	Model      string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("openai %s (%s): http %d: %v", e.Op, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("openai %s (%s): %v", e.Op, e.Model, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) HTTPStatusCode() int { return e.StatusCode }

type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int
}

type client struct {
	log   *logger.Logger
	api   oai.Client
	model string
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &client{
		log:   log.With("client", "OpenAIClient"),
		api:   oai.NewClient(opts...),
		model: strings.TrimSpace(cfg.DefaultModel),
	}, nil
}

func (c *client) modelFor(req ChatRequest) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return c.model
}

func toParams(model string, msgs []ChatMessage) oai.ChatCompletionNewParams {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, oai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, oai.AssistantMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return oai.ChatCompletionNewParams{
		Messages: out,
		Model:    model,
	}
}

func (c *client) StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	model := c.modelFor(req)
	if model == "" {
		return nil, &CallError{Op: "stream", Err: errors.New("missing model")}
	}
	params := toParams(model, req.Messages)
	params.StreamOptions = oai.ChatCompletionStreamOptionsParam{IncludeUsage: oai.Bool(true)}

	ctx = ctxutil.Default(ctx)
	start := time.Now()
	inputTokens := estimateMessages(req.Messages)
	stream := c.api.Chat.Completions.NewStreaming(ctx, params)

	out := make(chan StreamEvent, 16)
	send := func(ev StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	// cancelled ends a stream cut short by ctx with an error event, so a
	// truncated reply never reads as a finished one.
	cancelled := func() {
		select {
		case out <- StreamEvent{Err: &CallError{Op: "stream", Model: model, Err: ctx.Err()}}:
		default:
		}
	}
	go func() {
		defer close(out)
		defer stream.Close()

		var (
			outputChars strings.Builder
			usage       *Usage
		)
		for stream.Next() {
			chunk := stream.Current()
			// usage arrives on a final chunk with no choices
			if chunk.Usage.TotalTokens > 0 {
				usage = &Usage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			outputChars.WriteString(delta)
			if !send(StreamEvent{Delta: delta}) {
				cancelled()
				return
			}
		}
		if err := stream.Err(); err != nil {
			callErr := wrapErr("stream", model, err)
			observe(model, "stream", callErr, start, inputTokens, estimateTokens(outputChars.String()))
			c.log.Warn("model stream failed", "model", model, "error", err)
			if !send(StreamEvent{Err: callErr}) {
				cancelled()
			}
			return
		}
		if ctx.Err() != nil {
			cancelled()
			return
		}
		if usage == nil {
			est := inputTokens + estimateTokens(outputChars.String())
			usage = &Usage{PromptTokens: inputTokens, CompletionTokens: est - inputTokens, TotalTokens: est}
		}
		observe(model, "stream", nil, start, usage.PromptTokens, usage.CompletionTokens)
		send(StreamEvent{Usage: usage})
	}()
	return out, nil
}

func (c *client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	model := c.modelFor(req)
	if model == "" {
		return "", &CallError{Op: "complete", Err: errors.New("missing model")}
	}
	start := time.Now()
	inputTokens := estimateMessages(req.Messages)

	resp, err := c.api.Chat.Completions.New(ctxutil.Default(ctx), toParams(model, req.Messages))
	if err != nil {
		callErr := wrapErr("complete", model, err)
		observe(model, "complete", callErr, start, inputTokens, 0)
		return "", callErr
	}
	if len(resp.Choices) == 0 {
		callErr := &CallError{Op: "complete", Model: model, Err: errors.New("no choices")}
		observe(model, "complete", callErr, start, inputTokens, 0)
		return "", callErr
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		callErr := &CallError{Op: "complete", Model: model, Err: fmt.Errorf("model refused: %s", choice.Message.Refusal)}
		observe(model, "complete", callErr, start, inputTokens, 0)
		return "", callErr
	}
	in, outTok := int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens)
	if resp.Usage.TotalTokens == 0 {
		in, outTok = inputTokens, estimateTokens(choice.Message.Content)
	}
	observe(model, "complete", nil, start, in, outTok)
	return choice.Message.Content, nil
}

func wrapErr(op, model string, err error) *CallError {
	ce := &CallError{Op: op, Model: model, Err: err}
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		ce.StatusCode = apiErr.StatusCode
	}
	return ce
}

func observe(model, op string, err *CallError, start time.Time, inputTokens, outputTokens int) {
	metrics := observability.Current()
	if metrics == nil {
		return
	}
	metrics.ObserveLLMRequest(model, op, statusFromErr(err), time.Since(start), inputTokens, outputTokens)
}

func statusFromErr(err *CallError) string {
	if err == nil {
		return "ok"
	}
	if err.StatusCode > 0 {
		return strconv.Itoa(err.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func estimateMessages(msgs []ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += estimateTokens(m.Content)
	}
	return total
}

// EstimateTokens approximates a token count as ceil(runes/4).
func EstimateTokens(text string) int { return estimateTokens(text) }

func estimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	runes := []rune(text)
	return int(math.Ceil(float64(len(runes)) / 4.0))
}
