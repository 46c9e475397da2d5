package tagparse

import "strings"

const flagGrammar = "flag"

const (
	TagFlagReason = "flag-reason"
	TagNoFlags    = "no-flags"
)

type FlagResult struct {
	Flagged bool
	Reason  string
}

// ParseFlag reads zero or one <flag-reason>. The <no-flags> sentinel, or no
// tags at all, means nothing to flag.
func ParseFlag(input string) (FlagResult, error) {
	toks := Tokenize(input, TagFlagReason, TagNoFlags)
	if hasOpen(toks, TagNoFlags) {
		return FlagResult{}, nil
	}
	if tag, bad := countMismatch(toks, TagFlagReason); bad {
		return FlagResult{}, fail(flagGrammar, "Mismatched <%s> tags", tag)
	}
	elems, err := walkPairs(flagGrammar, toks)
	if err != nil {
		return FlagResult{}, err
	}
	var reasons []string
	for _, el := range elems {
		if el.Tag == TagFlagReason {
			reasons = append(reasons, strings.TrimSpace(el.Content))
		}
	}
	switch len(reasons) {
	case 0:
		return FlagResult{}, nil
	case 1:
		if reasons[0] == "" {
			return FlagResult{}, fail(flagGrammar, "Empty <flag-reason> tag")
		}
		return FlagResult{Flagged: true, Reason: reasons[0]}, nil
	default:
		return FlagResult{}, fail(flagGrammar, "Multiple flag reasons found")
	}
}

func SerializeFlag(res FlagResult) string {
	if !res.Flagged {
		return "<no-flags>"
	}
	return "<flag-reason>" + res.Reason + "</flag-reason>"
}
