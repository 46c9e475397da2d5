package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/summit-backend/internal/observability"
	"github.com/yungbote/summit-backend/internal/platform/alert"
)

type AnalyzerErrorKind string

const (
	AnalyzerModelCall AnalyzerErrorKind = "model_call"
	AnalyzerParse     AnalyzerErrorKind = "parse"
)

// AnalyzerError is a hard analyzer failure. It aborts the turn.
type AnalyzerError struct {
	Analyzer string
	Kind     AnalyzerErrorKind
	Attempts int
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s analyzer %s failure after %d attempt(s): %v", e.Analyzer, e.Kind, e.Attempts, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }

// IsAnalyzerError reports whether err carries an *AnalyzerError.
func IsAnalyzerError(err error) bool {
	var ae *AnalyzerError
	return errors.As(err, &ae)
}

// runAnalyzer asks the model with prompt and parses the reply, asking again on
// parse failures until attempts are spent. Model-call failures are not retried.
func runAnalyzer[T any](ctx context.Context, deps Deps, name, model, prompt string, parse func(string) (T, error)) (T, error) {
	var zero T
	log := deps.Log.With("analyzer", name)
	attempts := deps.Config.AnalyzerParseAttempts

	var (
		lastReply string
		lastErr   error
	)
	for n := 1; n <= attempts; n++ {
		reply, err := deps.AI.Complete(ctx, singleShot(model, prompt))
		if err != nil {
			observability.Current().IncAnalyzerError(name, string(AnalyzerModelCall))
			deps.alerter().Alert(ctx, alert.Alert{
				Title: fmt.Sprintf("%s analyzer model call failed", name),
				Details: map[string]any{
					"prompt": prompt,
					"error":  err.Error(),
				},
			})
			return zero, &AnalyzerError{Analyzer: name, Kind: AnalyzerModelCall, Attempts: n, Err: err}
		}
		out, perr := parse(reply)
		if perr == nil {
			return out, nil
		}
		lastReply, lastErr = reply, perr
		log.Warn("Analyzer reply did not parse", "attempt", n, "error", perr)
	}

	observability.Current().IncAnalyzerError(name, string(AnalyzerParse))
	deps.alerter().Alert(ctx, alert.Alert{
		Title: fmt.Sprintf("%s analyzer output unparseable", name),
		Details: map[string]any{
			"prompt":   prompt,
			"response": lastReply,
			"error":    fmt.Sprint(lastErr),
		},
	})
	return zero, &AnalyzerError{Analyzer: name, Kind: AnalyzerParse, Attempts: attempts, Err: lastErr}
}
