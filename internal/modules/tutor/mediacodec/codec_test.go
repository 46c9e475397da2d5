package mediacodec

import (
	"testing"

	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
)

func TestDefaultCodecRoundTrip(t *testing.T) {
	c := MustNew(DefaultConfig())
	ext, err := c.Encode(tagparse.FragmentImage, 12)
	if err != nil || ext != 1012 {
		t.Fatalf("Encode image: got=%d err=%v", ext, err)
	}
	if id, ok := c.Decode(tagparse.FragmentImage, 1012); !ok || id != 12 {
		t.Fatalf("Decode image: got=%d ok=%v", id, ok)
	}
	ext, err = c.Encode(tagparse.FragmentVideo, 7)
	if err != nil || ext != 2007 {
		t.Fatalf("Encode video: got=%d err=%v", ext, err)
	}
	if _, ok := c.Decode(tagparse.FragmentImage, 2007); ok {
		t.Fatalf("video number must not decode as image")
	}
	if _, ok := c.Decode(tagparse.FragmentVideo, 1012); ok {
		t.Fatalf("image number must not decode as video")
	}
}

func TestCodecRejectsOverlap(t *testing.T) {
	if _, err := New(Config{ImageBase: 0, VideoBase: 500, Span: 1000}); err == nil {
		t.Fatalf("expected overlap error")
	}
	if _, err := New(Config{ImageBase: 0, VideoBase: 1000, Span: 1000}); err != nil {
		t.Fatalf("adjacent ranges should be allowed: %v", err)
	}
	if _, err := New(Config{ImageBase: 0, VideoBase: 1000, Span: 0}); err == nil {
		t.Fatalf("expected span error")
	}
}

func TestCodecBoundaries(t *testing.T) {
	c := MustNew(Config{ImageBase: 0, VideoBase: 1000, Span: 1000})
	if _, err := c.Encode(tagparse.FragmentImage, 1000); err == nil {
		t.Fatalf("numeric id equal to span must be rejected")
	}
	if id, ok := c.Decode(tagparse.FragmentImage, 12); !ok || id != 12 {
		t.Fatalf("zero-based decode: got=%d ok=%v", id, ok)
	}
	if _, ok := c.Decode(tagparse.FragmentText, 12); ok {
		t.Fatalf("text fragments have no numbers")
	}
}
