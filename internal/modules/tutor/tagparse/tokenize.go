// Package tagparse reads the paired-tag formats the analyzer models answer in.
// Every parser tokenizes first and then walks the tokens, so malformed input
// always yields a *ParseError and never a panic.
package tagparse

import (
	"fmt"
	"strings"
)

type TokenKind uint8

const (
	TokenText TokenKind = iota
	TokenOpen
	TokenClose
)

type Token struct {
	Kind TokenKind
	Tag  string
	Text string
}

// Tokenize splits input into text and tag tokens. Only the listed tag names
// are recognized; anything else that looks like markup stays text. A
// self-closing <x/> yields an open and a close token.
func Tokenize(input string, tags ...string) []Token {
	known := make(map[string]bool, len(tags))
	for _, t := range tags {
		known[t] = true
	}
	var out []Token
	textStart := 0
	flush := func(end int) {
		if end > textStart {
			out = append(out, Token{Kind: TokenText, Text: input[textStart:end]})
		}
	}
	for i := 0; i < len(input); i++ {
		if input[i] != '<' {
			continue
		}
		name, closing, selfClosing, end, ok := matchTag(input, i)
		if !ok || !known[name] {
			continue
		}
		flush(i)
		switch {
		case closing:
			out = append(out, Token{Kind: TokenClose, Tag: name})
		case selfClosing:
			out = append(out, Token{Kind: TokenOpen, Tag: name}, Token{Kind: TokenClose, Tag: name})
		default:
			out = append(out, Token{Kind: TokenOpen, Tag: name})
		}
		textStart = end
		i = end - 1
	}
	flush(len(input))
	return out
}

// matchTag reads <name>, </name> or <name/> at input[i].
func matchTag(input string, i int) (name string, closing, selfClosing bool, end int, ok bool) {
	j := i + 1
	if j < len(input) && input[j] == '/' {
		closing = true
		j++
	}
	start := j
	for j < len(input) && isNameByte(input[j]) {
		j++
	}
	if j == start {
		return "", false, false, 0, false
	}
	name = input[start:j]
	if !closing && j < len(input) && input[j] == '/' {
		selfClosing = true
		j++
	}
	if j >= len(input) || input[j] != '>' {
		return "", false, false, 0, false
	}
	return name, closing, selfClosing, j + 1, true
}

func isNameByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}

// ParseError is a grammar violation in a model response.
type ParseError struct {
	Grammar string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse: %s", e.Grammar, e.Reason)
}

func fail(grammar, format string, args ...any) *ParseError {
	return &ParseError{Grammar: grammar, Reason: fmt.Sprintf(format, args...)}
}

// countMismatch reports the first tag whose open and close counts differ.
func countMismatch(toks []Token, tags ...string) (string, bool) {
	opens := map[string]int{}
	closes := map[string]int{}
	for _, t := range toks {
		switch t.Kind {
		case TokenOpen:
			opens[t.Tag]++
		case TokenClose:
			closes[t.Tag]++
		}
	}
	for _, tag := range tags {
		if opens[tag] != closes[tag] {
			return tag, true
		}
	}
	return "", false
}

func hasOpen(toks []Token, tag string) bool {
	for _, t := range toks {
		if t.Kind == TokenOpen && t.Tag == tag {
			return true
		}
	}
	return false
}

// element is one <tag>content</tag> pair, or a run of text outside any pair
// when Tag is empty.
type element struct {
	Tag     string
	Content string
}

// walkPairs pairs open/close tokens for grammars without nesting.
func walkPairs(grammar string, toks []Token) ([]element, error) {
	var out []element
	cur := ""
	var buf strings.Builder
	for _, t := range toks {
		switch t.Kind {
		case TokenText:
			if cur != "" {
				buf.WriteString(t.Text)
			} else {
				out = append(out, element{Content: t.Text})
			}
		case TokenOpen:
			if cur != "" {
				return nil, fail(grammar, "Unexpected <%s> inside <%s>", t.Tag, cur)
			}
			cur = t.Tag
			buf.Reset()
		case TokenClose:
			if cur != t.Tag {
				return nil, fail(grammar, "Unexpected </%s>", t.Tag)
			}
			out = append(out, element{Tag: cur, Content: buf.String()})
			cur = ""
		}
	}
	if cur != "" {
		return nil, fail(grammar, "Unclosed <%s>", cur)
	}
	return out, nil
}
