package tagparse

import (
	"strconv"
	"strings"
)

const mediaGrammar = "media"

const (
	TagText    = "text"
	TagImage   = "image"
	TagVideo   = "video"
	TagNoMedia = "no-media"
)

type FragmentKind string

const (
	FragmentText  FragmentKind = "text"
	FragmentImage FragmentKind = "image"
	FragmentVideo FragmentKind = "video"
)

// Fragment is one ordered piece of a rewritten message. Number is the
// model-facing external number for image and video fragments.
type Fragment struct {
	Kind   FragmentKind
	Text   string
	Number int
}

type MediaResult struct {
	NoMedia   bool
	Fragments []Fragment
}

// HasMedia reports whether any fragment references an image or video.
func (r MediaResult) HasMedia() bool {
	for _, f := range r.Fragments {
		if f.Kind != FragmentText {
			return true
		}
	}
	return false
}

// Resolver reports whether an external number names a catalog entry.
type Resolver func(kind FragmentKind, number int) bool

// ParseMedia reads a <text>/<image>/<video> sequence or the <no-media>
// sentinel. Tagged text is kept verbatim. When the response uses no <text>
// tags at all, bare text between media tags becomes trimmed text fragments;
// otherwise text outside tags is ignored.
func ParseMedia(input string, resolve Resolver) (MediaResult, error) {
	toks := Tokenize(input, TagText, TagImage, TagVideo, TagNoMedia)
	if hasOpen(toks, TagNoMedia) {
		return MediaResult{NoMedia: true}, nil
	}
	if tag, bad := countMismatch(toks, TagText, TagImage, TagVideo); bad {
		return MediaResult{}, fail(mediaGrammar, "Mismatched <%s> tags", tag)
	}

	elems, err := walkPairs(mediaGrammar, toks)
	if err != nil {
		return MediaResult{}, err
	}
	bare := !hasOpen(toks, TagText)
	var frags []Fragment
	for _, el := range elems {
		if el.Tag == "" {
			if s := strings.TrimSpace(el.Content); bare && s != "" {
				frags = append(frags, Fragment{Kind: FragmentText, Text: s})
			}
			continue
		}
		frag, err := mediaFragment(el.Tag, el.Content, resolve)
		if err != nil {
			return MediaResult{}, err
		}
		if frag != nil {
			frags = append(frags, *frag)
		}
	}
	return MediaResult{Fragments: frags}, nil
}

func mediaFragment(tag, content string, resolve Resolver) (*Fragment, error) {
	switch tag {
	case TagText:
		if strings.TrimSpace(content) == "" {
			return nil, nil
		}
		return &Fragment{Kind: FragmentText, Text: content}, nil
	case TagImage, TagVideo:
		kind := FragmentImage
		if tag == TagVideo {
			kind = FragmentVideo
		}
		raw := strings.TrimSpace(content)
		if raw == "" {
			return nil, fail(mediaGrammar, "No content found for <%s> tag", tag)
		}
		n, err := strconv.Atoi(raw)
		if err != nil || (resolve != nil && !resolve(kind, n)) {
			return nil, fail(mediaGrammar, "Invalid %s number: %q", tag, raw)
		}
		return &Fragment{Kind: kind, Number: n}, nil
	default:
		return nil, fail(mediaGrammar, "Unexpected <%s>", tag)
	}
}

// SerializeMedia renders fragments back into the tagged form ParseMedia reads.
func SerializeMedia(frags []Fragment) string {
	if len(frags) == 0 {
		return "<" + TagNoMedia + ">"
	}
	var b strings.Builder
	for _, f := range frags {
		switch f.Kind {
		case FragmentText:
			b.WriteString("<text>")
			b.WriteString(f.Text)
			b.WriteString("</text>")
		case FragmentImage:
			b.WriteString("<image>")
			b.WriteString(strconv.Itoa(f.Number))
			b.WriteString("</image>")
		case FragmentVideo:
			b.WriteString("<video>")
			b.WriteString(strconv.Itoa(f.Number))
			b.WriteString("</video>")
		}
	}
	return b.String()
}
