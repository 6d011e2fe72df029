package render

import (
	"image/color"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/suratkita/suratkita/pkg/document"
)

// DefaultFallbackColor replaces any color that cannot be normalized.
const DefaultFallbackColor = "#000000"

// Default theme colors.
var (
	DefaultPrimary = color.NRGBA{R: 0x1F, G: 0x2A, B: 0x5A, A: 0xFF}
	DefaultText    = color.NRGBA{A: 0xFF}
	DefaultAccent  = color.NRGBA{R: 0xB8, G: 0x90, B: 0x2F, A: 0xFF}
)

// Palette converts document colors into opaque sRGB colors the raster
// backend can always draw.
type Palette struct {
	fallback color.NRGBA
	logger   *log.Logger
}

// NewPalette builds a palette with the given fallback hex color. An
// unparseable fallback degrades to black.
func NewPalette(fallback string, logger *log.Logger) *Palette {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	fb, ok := parseHex(fallback)
	if !ok {
		logger.Warn("invalid fallback color, using black", "color", fallback)
		fb, _ = parseHex(DefaultFallbackColor)
	}
	return &Palette{fallback: fb, logger: logger}
}

// Fallback returns the fallback color.
func (p *Palette) Fallback() color.NRGBA { return p.fallback }

// Normalize resolves c. The empty color yields def; a color that does not
// parse yields the fallback and a warning, never an error.
func (p *Palette) Normalize(c document.Color, def color.NRGBA) color.NRGBA {
	if c.IsZero() {
		return def
	}
	if out, ok := parseHex(c.Hex()); ok {
		return out
	}
	p.logger.Warn("unsupported color, using fallback", "color", string(c))
	return p.fallback
}

// Theme holds the resolved colors of a document.
type Theme struct {
	Primary color.NRGBA
	Text    color.NRGBA
	Accent  color.NRGBA
}

// Theme resolves all document colors.
func (p *Palette) Theme(t document.Theme) Theme {
	return Theme{
		Primary: p.Normalize(t.Primary, DefaultPrimary),
		Text:    p.Normalize(t.Text, DefaultText),
		Accent:  p.Normalize(t.Accent, DefaultAccent),
	}
}

func parseHex(s string) (color.NRGBA, bool) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}, true
}
