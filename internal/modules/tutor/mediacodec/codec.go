// Package mediacodec maps catalog numeric ids to the external numbers shown
// to the model. Each media kind owns a disjoint range so a number alone
// identifies its kind.
package mediacodec

import (
	"fmt"

	"github.com/yungbote/summit-backend/internal/modules/tutor/tagparse"
)

const (
	DefaultImageBase = 1000
	DefaultVideoBase = 2000
	DefaultSpan      = 1000
)

type Config struct {
	ImageBase int
	VideoBase int
	Span      int
}

func DefaultConfig() Config {
	return Config{ImageBase: DefaultImageBase, VideoBase: DefaultVideoBase, Span: DefaultSpan}
}

type Codec struct {
	cfg Config
}

// New rejects configurations whose image and video ranges overlap.
func New(cfg Config) (*Codec, error) {
	if cfg.Span <= 0 {
		return nil, fmt.Errorf("media codec span must be positive, got %d", cfg.Span)
	}
	if cfg.ImageBase < 0 || cfg.VideoBase < 0 {
		return nil, fmt.Errorf("media codec bases must be non-negative")
	}
	imgEnd := cfg.ImageBase + cfg.Span
	vidEnd := cfg.VideoBase + cfg.Span
	if cfg.ImageBase < vidEnd && cfg.VideoBase < imgEnd {
		return nil, fmt.Errorf("media codec ranges overlap: image [%d,%d) video [%d,%d)", cfg.ImageBase, imgEnd, cfg.VideoBase, vidEnd)
	}
	return &Codec{cfg: cfg}, nil
}

func MustNew(cfg Config) *Codec {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) base(kind tagparse.FragmentKind) (int, bool) {
	switch kind {
	case tagparse.FragmentImage:
		return c.cfg.ImageBase, true
	case tagparse.FragmentVideo:
		return c.cfg.VideoBase, true
	default:
		return 0, false
	}
}

// Encode returns the external number for a catalog numeric id.
func (c *Codec) Encode(kind tagparse.FragmentKind, numericID int) (int, error) {
	base, ok := c.base(kind)
	if !ok {
		return 0, fmt.Errorf("media codec: unsupported kind %q", kind)
	}
	if numericID < 0 || numericID >= c.cfg.Span {
		return 0, fmt.Errorf("media codec: %s numeric id %d outside [0,%d)", kind, numericID, c.cfg.Span)
	}
	return base + numericID, nil
}

// Decode returns the catalog numeric id for an external number, or false if
// the number does not fall in kind's range.
func (c *Codec) Decode(kind tagparse.FragmentKind, external int) (int, bool) {
	base, ok := c.base(kind)
	if !ok {
		return 0, false
	}
	if external < base || external >= base+c.cfg.Span {
		return 0, false
	}
	return external - base, true
}
