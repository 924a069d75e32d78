package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/pspoerri/nzhike/internal/catalog"
)

// Style holds the colours used per record kind.
type Style struct {
	Track    color.RGBA
	Hut      color.RGBA
	Campsite color.RGBA
	// Outline rings each marker disc. A zero value disables it.
	Outline color.RGBA
}

// DefaultStyle matches the DOC map: green tracks, blue huts, orange campsites.
func DefaultStyle() Style {
	return Style{
		Track:    color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff},
		Hut:      color.RGBA{R: 0x15, G: 0x65, B: 0xc0, A: 0xff},
		Campsite: color.RGBA{R: 0xef, G: 0x6c, B: 0x00, A: 0xff},
		Outline:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// ColorFor returns the fill colour for k.
func (s Style) ColorFor(k catalog.Kind) color.RGBA {
	switch k {
	case catalog.KindHut:
		return s.Hut
	case catalog.KindCampsite:
		return s.Campsite
	default:
		return s.Track
	}
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
