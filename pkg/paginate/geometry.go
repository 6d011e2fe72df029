package paginate

import (
	"math"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

const mmPerInch = 25.4

// Geometry is a fixed physical page size with uniform margins.
type Geometry struct {
	WidthMM  float64
	HeightMM float64
	MarginMM float64
	DPI      int
}

var (
	// A4 is the default letter size.
	A4 = Geometry{WidthMM: 210, HeightMM: 297, MarginMM: 20, DPI: DefaultDPI}

	// F4 is the folio size commonly used for invitations.
	F4 = Geometry{WidthMM: 215, HeightMM: 330, MarginMM: 20, DPI: DefaultDPI}
)

// DefaultGeometry returns the page size used for kind.
func DefaultGeometry(kind document.Kind) Geometry {
	if kind == document.KindInvitation {
		return F4
	}
	return A4
}

// Validate rejects non-positive dimensions and margins that leave no content area.
func (g Geometry) Validate() error {
	if g.WidthMM <= 0 || g.HeightMM <= 0 {
		return errors.Validation("page size must be positive, got %gx%g mm", g.WidthMM, g.HeightMM)
	}
	if g.MarginMM < 0 || 2*g.MarginMM >= g.WidthMM || 2*g.MarginMM >= g.HeightMM {
		return errors.Validation("margin %g mm leaves no content area", g.MarginMM)
	}
	if g.DPI < 0 {
		return errors.Validation("dpi must not be negative, got %d", g.DPI)
	}
	return nil
}

// WithDefaults fills a zero DPI.
func (g Geometry) WithDefaults() Geometry {
	if g.DPI == 0 {
		g.DPI = DefaultDPI
	}
	return g
}

// Px converts a length in millimetres to pixels at the geometry's DPI.
func (g Geometry) Px(mm float64) int {
	return int(math.Round(mm / mmPerInch * float64(g.WithDefaults().DPI)))
}

// PixelSize returns the full page size in pixels.
func (g Geometry) PixelSize() (w, h int) {
	return g.Px(g.WidthMM), g.Px(g.HeightMM)
}

// MarginPx returns the margin in pixels.
func (g Geometry) MarginPx() int {
	return g.Px(g.MarginMM)
}

// ContentSize returns the drawable area inside the margins, in pixels.
func (g Geometry) ContentSize() (w, h int) {
	pw, ph := g.PixelSize()
	m := g.MarginPx()
	return pw - 2*m, ph - 2*m
}
