package tagparse

import (
	"strconv"
	"strings"
)

const completionGrammar = "completion"

const (
	TagComplete   = "complete"
	TagInProgress = "in-progress"
	TagNone       = "none"
)

// CompletionResult holds 1-based item numbers, deduplicated in order of
// appearance. None is set when the model answered with the sentinel only.
type CompletionResult struct {
	None       bool
	Complete   []int
	InProgress []int
}

// ParseCompletions reads <complete>N</complete> and <in-progress>N</in-progress>
// lines. Any number outside 1..itemCount is a failure. A response with no
// recognized tags at all is a failure too.
func ParseCompletions(input string, itemCount int) (CompletionResult, error) {
	toks := Tokenize(input, TagComplete, TagInProgress, TagNone)
	if tag, bad := countMismatch(toks, TagComplete, TagInProgress); bad {
		return CompletionResult{}, fail(completionGrammar, "Mismatched <%s> tags", tag)
	}
	elems, err := walkPairs(completionGrammar, withoutTag(toks, TagNone))
	if err != nil {
		return CompletionResult{}, err
	}

	var res CompletionResult
	seen := map[string]map[int]bool{TagComplete: {}, TagInProgress: {}}
	found := false
	for _, el := range elems {
		if el.Tag == "" {
			continue
		}
		found = true
		raw := strings.TrimSpace(el.Content)
		n, err := strconv.Atoi(raw)
		if err != nil {
			return CompletionResult{}, fail(completionGrammar, "Invalid item number: %q", raw)
		}
		if n < 1 || n > itemCount {
			return CompletionResult{}, fail(completionGrammar, "Invalid item number: %d. Valid numbers: %s", n, validRange(itemCount))
		}
		if seen[el.Tag][n] {
			continue
		}
		seen[el.Tag][n] = true
		if el.Tag == TagComplete {
			res.Complete = append(res.Complete, n)
		} else {
			res.InProgress = append(res.InProgress, n)
		}
	}
	if found {
		return res, nil
	}
	if hasOpen(toks, TagNone) {
		return CompletionResult{None: true}, nil
	}
	return CompletionResult{}, fail(completionGrammar, "No <complete>, <in-progress>, or <none> tags found")
}

func withoutTag(toks []Token, tag string) []Token {
	out := toks[:0:0]
	for _, t := range toks {
		if t.Kind != TokenText && t.Tag == tag {
			continue
		}
		out = append(out, t)
	}
	return out
}

func validRange(n int) string {
	switch {
	case n <= 0:
		return "none"
	case n == 1:
		return "1"
	default:
		return "1-" + strconv.Itoa(n)
	}
}

// SerializeCompletions renders a result in the form ParseCompletions reads.
func SerializeCompletions(res CompletionResult) string {
	if len(res.Complete) == 0 && len(res.InProgress) == 0 {
		return "<none></none>"
	}
	var lines []string
	for _, n := range res.Complete {
		lines = append(lines, "<complete>"+strconv.Itoa(n)+"</complete>")
	}
	for _, n := range res.InProgress {
		lines = append(lines, "<in-progress>"+strconv.Itoa(n)+"</in-progress>")
	}
	return strings.Join(lines, "\n")
}
