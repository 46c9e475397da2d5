package tagparse

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func resolverFor(images, videos []int) Resolver {
	return func(kind FragmentKind, n int) bool {
		list := images
		if kind == FragmentVideo {
			list = videos
		}
		for _, v := range list {
			if v == n {
				return true
			}
		}
		return false
	}
}

func TestTokenizeLeavesUnknownMarkupAsText(t *testing.T) {
	toks := Tokenize("a <b>bold</b> <image>3</image><no-media/>", TagImage, TagNoMedia)
	want := []Token{
		{Kind: TokenText, Text: "a <b>bold</b> "},
		{Kind: TokenOpen, Tag: TagImage},
		{Kind: TokenText, Text: "3"},
		{Kind: TokenClose, Tag: TagImage},
		{Kind: TokenOpen, Tag: TagNoMedia},
		{Kind: TokenClose, Tag: TagNoMedia},
	}
	if !reflect.DeepEqual(toks, want) {
		t.Fatalf("tokens:\n got=%#v\nwant=%#v", toks, want)
	}
}

func TestParseMedia(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		images []int
		videos []int
		want   []Fragment
		reason string
	}{
		{
			name:   "text image video with preamble ignored",
			input:  "Some preamble <text>Hello, world!</text> in-between <image>1042</image> and <video>2007</video> postamble.",
			images: []int{1042},
			videos: []int{2007},
			want: []Fragment{
				{Kind: FragmentText, Text: "Hello, world!"},
				{Kind: FragmentImage, Number: 1042},
				{Kind: FragmentVideo, Number: 2007},
			},
		},
		{
			name:   "tagged text kept verbatim and numbers trimmed",
			input:  "<text>\n  Spaced content  \n</text><image>  1007  </image><video>\n2003\n</video>",
			images: []int{1007},
			videos: []int{2003},
			want: []Fragment{
				{Kind: FragmentText, Text: "\n  Spaced content  \n"},
				{Kind: FragmentImage, Number: 1007},
				{Kind: FragmentVideo, Number: 2003},
			},
		},
		{
			name:   "bare text becomes fragments without text tags",
			input:  "Look at this: <image>12</image> Neat, right?",
			images: []int{12},
			want: []Fragment{
				{Kind: FragmentText, Text: "Look at this:"},
				{Kind: FragmentImage, Number: 12},
				{Kind: FragmentText, Text: "Neat, right?"},
			},
		},
		{name: "mismatched text", input: "Some content <text>Missing closing tag", reason: "Mismatched <text> tags"},
		{name: "mismatched image", input: "<image>1123</image> and then <image>1456", images: []int{1123}, reason: "Mismatched <image> tags"},
		{name: "mismatched video", input: "<video>2001", reason: "Mismatched <video> tags"},
		{name: "non numeric video", input: "<video>abc</video>", reason: `Invalid video number: "abc"`},
		{name: "unknown image", input: "<image>1999</image>", images: []int{1000}, reason: `Invalid image number: "1999"`},
		{name: "empty image", input: "<image> </image>", reason: "No content found for <image> tag"},
		{name: "nested", input: "<text>a <image>1</image></text>", images: []int{1}, reason: "Unexpected <image> inside <text>"},
		{name: "close before open", input: "</image><image>", reason: "Unexpected </image>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseMedia(tc.input, resolverFor(tc.images, tc.videos))
			if tc.reason != "" {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("want *ParseError, got %v", err)
				}
				if pe.Reason != tc.reason {
					t.Fatalf("reason: got=%q want=%q", pe.Reason, tc.reason)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMedia: %v", err)
			}
			if !reflect.DeepEqual(res.Fragments, tc.want) {
				t.Fatalf("fragments:\n got=%#v\nwant=%#v", res.Fragments, tc.want)
			}
		})
	}
}

func TestParseMediaSentinel(t *testing.T) {
	res, err := ParseMedia("Nothing to add. <no-media>", nil)
	if err != nil {
		t.Fatalf("ParseMedia: %v", err)
	}
	if !res.NoMedia || len(res.Fragments) != 0 || res.HasMedia() {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMediaRoundTrip(t *testing.T) {
	inputs := []string{
		"<text>First</text><image>1007</image><text>Second</text><video>2003</video><text>Third</text><image>1008</image>",
		"<text> a <b>b</b> </text>",
		"<no-media>",
	}
	resolve := resolverFor([]int{1007, 1008}, []int{2003})
	for _, in := range inputs {
		first, err := ParseMedia(in, resolve)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		again, err := ParseMedia(SerializeMedia(first.Fragments), resolve)
		if err != nil {
			t.Fatalf("reparse %q: %v", in, err)
		}
		if !reflect.DeepEqual(first.Fragments, again.Fragments) {
			t.Fatalf("round trip of %q:\n got=%#v\nwant=%#v", in, again.Fragments, first.Fragments)
		}
	}
}

func TestParseMediaNeverPanicsOnJunk(t *testing.T) {
	junk := []string{"", "<", "<<>>", "</", "<image", "<image>>", "<text></text></text>", strings.Repeat("<video>", 50)}
	for _, in := range junk {
		_, _ = ParseMedia(in, nil)
		_, _ = ParseCompletions(in, 3)
		_, _ = ParseFlag(in)
	}
}

func TestParseCompletions(t *testing.T) {
	res, err := ParseCompletions("<complete>1</complete>\n<complete>2</complete>\n<complete>1</complete>\n<in-progress>3</in-progress>", 3)
	if err != nil {
		t.Fatalf("ParseCompletions: %v", err)
	}
	if !reflect.DeepEqual(res.Complete, []int{1, 2}) || !reflect.DeepEqual(res.InProgress, []int{3}) {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = ParseCompletions("RESULT:\n<none></none>", 3)
	if err != nil || !res.None {
		t.Fatalf("sentinel: %+v %v", res, err)
	}

	_, err = ParseCompletions("<complete>4</complete>", 3)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Reason != "Invalid item number: 4. Valid numbers: 1-3" {
		t.Fatalf("out of range: %v", err)
	}
	if _, err := ParseCompletions("<complete>0</complete>", 3); err == nil {
		t.Fatalf("expected zero to be rejected")
	}
	if _, err := ParseCompletions("<complete>x</complete>", 3); err == nil {
		t.Fatalf("expected non-integer to be rejected")
	}
	if _, err := ParseCompletions("all done!", 3); err == nil {
		t.Fatalf("expected missing tags to be rejected")
	}
	if _, err := ParseCompletions("<complete>1", 3); err == nil {
		t.Fatalf("expected mismatched tags to be rejected")
	}
}

func TestCompletionsRoundTrip(t *testing.T) {
	want := CompletionResult{Complete: []int{2, 5}, InProgress: []int{1}}
	got, err := ParseCompletions(SerializeCompletions(want), 5)
	if err != nil {
		t.Fatalf("ParseCompletions: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip: got=%+v want=%+v", got, want)
	}
}

func TestParseFlag(t *testing.T) {
	res, err := ParseFlag("<flag-reason> I gave a wrong fact </flag-reason>")
	if err != nil || !res.Flagged || res.Reason != "I gave a wrong fact" {
		t.Fatalf("single reason: %+v %v", res, err)
	}
	res, err = ParseFlag("<no-flags>")
	if err != nil || res.Flagged {
		t.Fatalf("sentinel: %+v %v", res, err)
	}
	res, err = ParseFlag("nothing here")
	if err != nil || res.Flagged {
		t.Fatalf("no tags: %+v %v", res, err)
	}
	_, err = ParseFlag("<flag-reason>a</flag-reason><flag-reason>b</flag-reason>")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Reason != "Multiple flag reasons found" {
		t.Fatalf("multiple: %v", err)
	}
	if _, err := ParseFlag("<flag-reason>  </flag-reason>"); err == nil {
		t.Fatalf("expected empty reason to be rejected")
	}
	back, err := ParseFlag(SerializeFlag(FlagResult{Flagged: true, Reason: "x"}))
	if err != nil || back.Reason != "x" {
		t.Fatalf("round trip: %+v %v", back, err)
	}
}
