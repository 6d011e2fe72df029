package raster

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/suratkita/suratkita/pkg/fonts"
	"github.com/suratkita/suratkita/pkg/render"
)

// canvas is a cursor over a gg context. In dry mode nothing is drawn and
// only the cursor advances, so the same layout code measures and paints.
type canvas struct {
	dc    *gg.Context
	dpi   int
	theme render.Theme
	dry   bool

	left, right float64
	top, bottom float64
	y           float64

	faces map[faceKey]font.Face
}

type faceKey struct {
	style fonts.Style
	size  float64
}

// Font sizes in points.
const (
	sizeSmall   = 9
	sizeBody    = 11
	sizeHeading = 13
	sizeOrg     = 16
	sizeCover   = 22
)

func newCanvas(dc *gg.Context, dpi int, theme render.Theme, margin float64, dry bool) *canvas {
	return &canvas{
		dc:     dc,
		dpi:    dpi,
		theme:  theme,
		dry:    dry,
		left:   margin,
		right:  float64(dc.Width()) - margin,
		top:    margin,
		bottom: float64(dc.Height()) - margin,
		y:      margin,
		faces:  map[faceKey]font.Face{},
	}
}

func (c *canvas) width() float64 { return c.right - c.left }

// pt converts points to pixels.
func (c *canvas) pt(v float64) float64 { return v * float64(c.dpi) / 72 }

// mm converts millimetres to pixels.
func (c *canvas) mm(v float64) float64 { return v / 25.4 * float64(c.dpi) }

func (c *canvas) font(style fonts.Style, size float64) error {
	k := faceKey{style, size}
	face, ok := c.faces[k]
	if !ok {
		var err error
		face, err = fonts.Face(style, size, c.dpi)
		if err != nil {
			return err
		}
		c.faces[k] = face
	}
	c.dc.SetFontFace(face)
	return nil
}

func (c *canvas) lineHeight() float64 { return c.dc.FontHeight() * 1.35 }

func (c *canvas) space(points float64) { c.y += c.pt(points) }

// overflow returns how far the cursor ran past the bottom margin.
func (c *canvas) overflow() float64 { return math.Max(0, c.y-c.bottom) }

// text draws s wrapped to the content width. Hard line breaks are kept.
func (c *canvas) text(s string, style fonts.Style, size float64, align gg.Align, col color.Color) error {
	return c.textIn(s, style, size, align, col, c.left, c.width())
}

func (c *canvas) textIn(s string, style fonts.Style, size float64, align gg.Align, col color.Color, x, w float64) error {
	if err := c.font(style, size); err != nil {
		return err
	}
	for _, line := range c.wrap(s, w) {
		c.drawLine(line, align, col, x, w)
	}
	return nil
}

func (c *canvas) wrap(s string, w float64) []string {
	var out []string
	for _, part := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		part = strings.TrimRight(part, " \t\r")
		if part == "" {
			out = append(out, "")
			continue
		}
		out = append(out, c.dc.WordWrap(part, w)...)
	}
	return out
}

// drawLine draws one already-wrapped line with its baseline one font height
// below the cursor and advances the cursor by a line.
func (c *canvas) drawLine(line string, align gg.Align, col color.Color, x, w float64) {
	baseline := c.y + c.dc.FontHeight()
	if !c.dry && line != "" {
		c.dc.SetColor(col)
		switch align {
		case gg.AlignCenter:
			c.dc.DrawStringAnchored(line, x+w/2, baseline, 0.5, 0)
		case gg.AlignRight:
			c.dc.DrawStringAnchored(line, x+w, baseline, 1, 0)
		default:
			c.dc.DrawString(line, x, baseline)
		}
	}
	c.y += c.lineHeight()
}

// rule draws a horizontal line across the content width.
func (c *canvas) rule(thickness float64, col color.Color) {
	if !c.dry {
		c.dc.SetColor(col)
		c.dc.SetLineWidth(c.pt(thickness))
		c.dc.DrawLine(c.left, c.y, c.right, c.y)
		c.dc.Stroke()
	}
	c.y += c.pt(thickness)
}

// image draws img centred in the box (x, y, w, h).
func (c *canvas) image(img image.Image, x, y, w, h float64) {
	if c.dry || img == nil {
		return
	}
	c.dc.DrawImageAnchored(img, int(x+w/2), int(y+h/2), 0.5, 0.5)
}

func (c *canvas) box(x, y, w, h float64, col color.Color) {
	if c.dry {
		return
	}
	c.dc.SetColor(col)
	c.dc.SetLineWidth(c.pt(0.6))
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Stroke()
}

// =============================================================================
// Tables
// =============================================================================

type column struct {
	title  string
	weight float64
	align  gg.Align
}

// table draws a bordered table. Cells wrap inside their column; a row is
// as tall as its tallest cell. The header row is bold and shaded.
func (c *canvas) table(cols []column, rows [][]string, footer []string) error {
	widths := c.columnWidths(cols)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.title
	}
	if err := c.row(cols, widths, header, fonts.Bold, true); err != nil {
		return err
	}
	for _, r := range rows {
		if err := c.row(cols, widths, r, fonts.Regular, false); err != nil {
			return err
		}
	}
	if footer != nil {
		return c.row(cols, widths, footer, fonts.Bold, false)
	}
	return nil
}

func (c *canvas) columnWidths(cols []column) []float64 {
	var total float64
	for _, col := range cols {
		total += col.weight
	}
	widths := make([]float64, len(cols))
	for i, col := range cols {
		widths[i] = c.width() * col.weight / total
	}
	return widths
}

func (c *canvas) row(cols []column, widths []float64, cells []string, style fonts.Style, shaded bool) error {
	if err := c.font(style, sizeSmall); err != nil {
		return err
	}
	pad := c.pt(3)

	wrapped := make([][]string, len(cols))
	lines := 1
	for i := range cols {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		wrapped[i] = c.wrap(cell, widths[i]-2*pad)
		lines = max(lines, len(wrapped[i]))
	}
	h := float64(lines)*c.lineHeight() + 2*pad

	top := c.y
	if !c.dry && shaded {
		c.dc.SetColor(tint(c.theme.Primary))
		c.dc.DrawRectangle(c.left, top, c.width(), h)
		c.dc.Fill()
	}

	x := c.left
	for i, col := range cols {
		c.box(x, top, widths[i], h, c.theme.Text)
		c.y = top + pad
		for _, line := range wrapped[i] {
			c.drawLine(line, col.align, c.theme.Text, x+pad, widths[i]-2*pad)
		}
		x += widths[i]
	}
	c.y = top + h
	return nil
}

// tint lightens a color for table header shading.
func tint(col color.NRGBA) color.NRGBA {
	mix := func(v uint8) uint8 { return uint8(int(v) + (255-int(v))*85/100) }
	return color.NRGBA{R: mix(col.R), G: mix(col.G), B: mix(col.B), A: 0xFF}
}
