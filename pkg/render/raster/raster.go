// Package raster is the default render backend: it draws pages with
// fogleman/gg at the geometry's DPI using the Go font family.
//
// Each page is laid out twice: a dry pass that only measures, and a paint
// pass. The dry pass gives fixed pages their overflow check and gives the
// continuous flow its exact height before any pixels are allocated.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/fonts"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/render"
	"github.com/suratkita/suratkita/pkg/render/orgchart"
)

// ChartFunc rasterizes organization chart DOT source.
type ChartFunc func(ctx context.Context, dot string) (image.Image, error)

// Options configures the raster backend.
type Options struct {
	// Overflow decides what a fixed page does with content taller than the page.
	Overflow render.OverflowPolicy

	// FallbackColor replaces colors that cannot be normalized.
	FallbackColor string

	// Chart renders structure pages. Defaults to [orgchart.RenderImage].
	Chart ChartFunc

	Logger *log.Logger
}

// Raster implements [render.Backend].
type Raster struct {
	overflow render.OverflowPolicy
	palette  *render.Palette
	chart    ChartFunc
	logger   *log.Logger
}

var _ render.Backend = (*Raster)(nil)

// New creates a raster backend.
func New(opts Options) *Raster {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	overflow := opts.Overflow
	if overflow == "" {
		overflow = render.DefaultOverflow
	}
	fallback := opts.FallbackColor
	if fallback == "" {
		fallback = render.DefaultFallbackColor
	}
	chart := opts.Chart
	if chart == nil {
		chart = orgchart.RenderImage
	}
	return &Raster{
		overflow: overflow,
		palette:  render.NewPalette(fallback, logger),
		chart:    chart,
		logger:   logger,
	}
}

// =============================================================================
// Discrete pages
// =============================================================================

// RenderPage draws one page at the geometry's pixel size.
func (r *Raster) RenderPage(ctx context.Context, doc *document.Document, page paginate.PageDescriptor, geom paginate.Geometry) (image.Image, error) {
	geom = geom.WithDefaults()
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	w, h := geom.PixelSize()
	theme := r.palette.Theme(doc.Theme)
	charts := map[int]image.Image{}

	dry := newCanvas(gg.NewContext(w, h), geom.DPI, theme, float64(geom.MarginPx()), true)
	if err := r.layoutPage(ctx, dry, doc, page, charts); err != nil {
		return nil, err
	}
	// Collection chunks are bounded by capacity alone; only fixed pages
	// are subject to the overflow policy.
	if over := dry.overflow(); over > 0 {
		if r.overflow != render.OverflowClip && !page.SectionKind.IsCollection() {
			return nil, errors.New(errors.ErrCodePageOverflow,
				"%s page %d of section %d is %.0f px taller than the page",
				page.SectionKind, page.ChunkIndex+1, page.SectionIndex+1, over)
		}
		r.logger.Warn("page content clipped", "section", page.SectionIndex, "kind", page.SectionKind, "overflow_px", int(over))
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	c := newCanvas(dc, geom.DPI, theme, float64(geom.MarginPx()), false)
	dc.DrawRectangle(c.left, 0, c.width(), c.bottom)
	dc.Clip()
	if err := r.layoutPage(ctx, c, doc, page, charts); err != nil {
		return nil, err
	}
	dc.ResetClip()
	if page.PageIndex > 0 {
		if err := r.footer(c, page.PageIndex); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

func (r *Raster) layoutPage(ctx context.Context, c *canvas, doc *document.Document, page paginate.PageDescriptor, charts map[int]image.Image) error {
	opening := isOpening(doc, page)
	if page.SectionKind == document.SectionCover || opening {
		if err := r.letterhead(c, doc); err != nil {
			return err
		}
	}
	if opening {
		if err := r.addressing(c, doc); err != nil {
			return err
		}
	}
	return r.section(ctx, c, doc, page, charts)
}

// isOpening reports whether page starts the letter body: the first page of
// the first text section carries the letterhead and the addressing block.
func isOpening(doc *document.Document, page paginate.PageDescriptor) bool {
	texts := doc.SectionsOf(document.SectionText)
	return len(texts) > 0 && texts[0] == page.SectionIndex && page.ChunkIndex == 0
}

func (r *Raster) footer(c *canvas, pageIndex int) error {
	if err := c.font(fonts.Regular, sizeSmall); err != nil {
		return err
	}
	c.y = c.bottom + c.pt(6)
	c.drawLine(fmt.Sprintf("Halaman %d", pageIndex), gg.AlignCenter, c.theme.Text, c.left, c.width())
	return nil
}

// =============================================================================
// Continuous flow
// =============================================================================

// RenderFlow draws every section back to back on one page-wide image.
// Collections are not chunked.
func (r *Raster) RenderFlow(ctx context.Context, doc *document.Document, geom paginate.Geometry) (image.Image, error) {
	geom = geom.WithDefaults()
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	w, _ := geom.PixelSize()
	margin := float64(geom.MarginPx())
	theme := r.palette.Theme(doc.Theme)
	charts := map[int]image.Image{}

	dry := newCanvas(gg.NewContext(w, 1), geom.DPI, theme, margin, true)
	dry.bottom = math.Inf(1)
	if err := r.layoutFlow(ctx, dry, doc, charts); err != nil {
		return nil, err
	}
	h := int(math.Ceil(dry.y + margin))

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	c := newCanvas(dc, geom.DPI, theme, margin, false)
	if err := r.layoutFlow(ctx, c, doc, charts); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *Raster) layoutFlow(ctx context.Context, c *canvas, doc *document.Document, charts map[int]image.Image) error {
	if err := r.letterhead(c, doc); err != nil {
		return err
	}
	if err := r.addressing(c, doc); err != nil {
		return err
	}
	for i := range doc.Sections {
		s := doc.Sections[i]
		page := paginate.PageDescriptor{
			SectionIndex: i,
			SectionKind:  s.Kind,
			Title:        s.Title,
			ChunkCount:   1,
			Content:      s,
			IsFinalChunk: true,
		}
		if err := r.section(ctx, c, doc, page, charts); err != nil {
			return err
		}
		c.space(10)
	}
	return nil
}

// =============================================================================
// Letterhead
// =============================================================================

func (r *Raster) letterhead(c *canvas, doc *document.Document) error {
	h := doc.Header
	top := c.y
	emblem := c.mm(22)

	for _, e := range []struct {
		img *document.Image
		x   float64
	}{{h.LeftEmblem, c.left}, {h.RightEmblem, c.right - emblem}} {
		if e.img == nil || len(e.img.Data) == 0 || c.dry {
			continue
		}
		img, err := decode(e.img.Data, int(emblem), int(emblem))
		if err != nil {
			return errors.Render(err, "decode emblem %s", e.img.Name)
		}
		c.image(img, e.x, top, emblem, emblem)
	}

	textX := c.left + emblem + c.mm(3)
	textW := c.width() - 2*(emblem+c.mm(3))
	if err := c.textIn(strings.ToUpper(h.OrganizationName), fonts.Bold, sizeOrg, gg.AlignCenter, c.theme.Primary, textX, textW); err != nil {
		return err
	}
	for _, line := range h.AddressLines {
		if err := c.textIn(line, fonts.Regular, sizeSmall, gg.AlignCenter, c.theme.Text, textX, textW); err != nil {
			return err
		}
	}
	if h.ContactLine != "" {
		if err := c.textIn(h.ContactLine, fonts.Italic, sizeSmall, gg.AlignCenter, c.theme.Text, textX, textW); err != nil {
			return err
		}
	}

	c.y = math.Max(c.y, top+emblem) + c.pt(4)
	c.rule(2, c.theme.Primary)
	c.space(1.5)
	c.rule(0.6, c.theme.Primary)
	c.space(12)
	return nil
}

func (r *Raster) addressing(c *canvas, doc *document.Document) error {
	h := doc.Header
	top := c.y
	if err := c.text(h.Place+", "+FormatDate(h.Date), fonts.Regular, sizeBody, gg.AlignRight, c.theme.Text); err != nil {
		return err
	}
	c.y = top

	meta := []string{"Nomor    : " + h.LetterNumber}
	if h.Reference != "" {
		meta = append(meta, "Lampiran : "+h.Reference)
	}
	meta = append(meta, "Perihal  : "+h.Subject)
	for _, line := range meta {
		if err := c.textIn(line, fonts.Regular, sizeBody, gg.AlignLeft, c.theme.Text, c.left, c.width()*0.6); err != nil {
			return err
		}
	}
	c.space(10)

	rec := doc.Recipient
	if rec.IsZero() {
		return nil
	}
	lines := []string{"Kepada Yth."}
	lines = append(lines, rec.Name)
	if rec.Title != "" {
		lines = append(lines, rec.Title)
	}
	if rec.Place != "" {
		lines = append(lines, "di "+rec.Place)
	}
	for i, line := range lines {
		style := fonts.Regular
		if i == 1 {
			style = fonts.Bold
		}
		if err := c.text(line, style, sizeBody, gg.AlignLeft, c.theme.Text); err != nil {
			return err
		}
	}
	c.space(12)
	return nil
}

// =============================================================================
// Sections
// =============================================================================

func (r *Raster) section(ctx context.Context, c *canvas, doc *document.Document, page paginate.PageDescriptor, charts map[int]image.Image) error {
	s := page.Content
	if s.Kind != document.SectionCover && page.Title != "" {
		title := page.Title
		if page.ChunkCount > 1 && page.ChunkIndex > 0 {
			title += " (lanjutan)"
		}
		if err := c.text(title, fonts.Bold, sizeHeading, gg.AlignLeft, c.theme.Primary); err != nil {
			return err
		}
		c.space(4)
	}

	switch s.Kind {
	case document.SectionCover:
		return r.cover(c, doc, s)
	case document.SectionText:
		return c.text(s.Text, fonts.Regular, sizeBody, gg.AlignLeft, c.theme.Text)
	case document.SectionPoints:
		return r.points(c, s.Points)
	case document.SectionBudget:
		return r.budget(c, doc, page)
	case document.SectionPhotos:
		return r.photos(c, page)
	case document.SectionSignatures:
		return r.signatures(c, doc, s.Signatories)
	case document.SectionStructure:
		return r.structure(ctx, c, page, charts)
	case document.SectionDistribution:
		return r.distribution(c, page)
	}
	return errors.Validation("cannot render section kind %q", s.Kind)
}

func (r *Raster) cover(c *canvas, doc *document.Document, s document.Section) error {
	c.space(60)
	title := s.Title
	if title == "" {
		title = doc.Header.Subject
	}
	if err := c.text(strings.ToUpper(title), fonts.Bold, sizeCover, gg.AlignCenter, c.theme.Primary); err != nil {
		return err
	}
	c.space(16)
	if s.Text != "" {
		if err := c.text(s.Text, fonts.Regular, sizeHeading, gg.AlignCenter, c.theme.Text); err != nil {
			return err
		}
	}
	c.space(80)
	if err := c.text(doc.Header.OrganizationName, fonts.Bold, sizeHeading, gg.AlignCenter, c.theme.Accent); err != nil {
		return err
	}
	return c.text(fmt.Sprintf("%s %d", doc.Header.Place, doc.Header.Date.Year()), fonts.Regular, sizeBody, gg.AlignCenter, c.theme.Text)
}

func (r *Raster) points(c *canvas, points []string) error {
	if err := c.font(fonts.Regular, sizeBody); err != nil {
		return err
	}
	indent := c.pt(18)
	for i, p := range points {
		top := c.y
		c.drawLine(fmt.Sprintf("%d.", i+1), gg.AlignLeft, c.theme.Text, c.left, indent)
		c.y = top
		if err := c.textIn(p, fonts.Regular, sizeBody, gg.AlignLeft, c.theme.Text, c.left+indent, c.width()-indent); err != nil {
			return err
		}
		c.space(2)
	}
	return nil
}

var budgetColumns = []column{
	{"No", 0.6, gg.AlignCenter},
	{"Uraian", 3, gg.AlignLeft},
	{"Spesifikasi", 2.4, gg.AlignLeft},
	{"Jumlah", 1.4, gg.AlignCenter},
	{"Harga Satuan", 2, gg.AlignRight},
	{"Total", 2.2, gg.AlignRight},
}

func (r *Raster) budget(c *canvas, doc *document.Document, page paginate.PageDescriptor) error {
	items := page.Content.Budget
	rows := make([][]string, len(items))
	for i, it := range items {
		qty := it.Quantity.String()
		if it.Unit != "" {
			qty += " " + it.Unit
		}
		rows[i] = []string{
			fmt.Sprint(page.ItemOffset + i + 1),
			it.Name,
			it.Specification,
			qty,
			document.FormatRupiah(it.UnitPrice),
			document.FormatRupiah(it.Total()),
		}
	}

	var footer []string
	if page.IsFinalChunk {
		total := document.SumTotals(items)
		if page.SectionIndex < len(doc.Sections) {
			total = document.SumTotals(doc.Sections[page.SectionIndex].Budget)
		}
		footer = []string{"", "Jumlah Total", "", "", "", document.FormatRupiah(total)}
	}
	return c.table(budgetColumns, rows, footer)
}

var distributionColumns = []column{
	{"No", 0.6, gg.AlignCenter},
	{"Nama", 3, gg.AlignLeft},
	{"Jabatan", 2.5, gg.AlignLeft},
	{"Alamat", 3.5, gg.AlignLeft},
}

func (r *Raster) distribution(c *canvas, page paginate.PageDescriptor) error {
	recips := page.Content.Recipients
	rows := make([][]string, len(recips))
	for i, rec := range recips {
		rows[i] = []string{fmt.Sprint(page.ItemOffset + i + 1), rec.Name, rec.Title, rec.Place}
	}
	return c.table(distributionColumns, rows, nil)
}

// photos draws a two-column grid with captions under each cell.
func (r *Raster) photos(c *canvas, page paginate.PageDescriptor) error {
	photos := page.Content.Photos
	gap := c.mm(6)
	cellW := (c.width() - gap) / 2
	cellH := cellW * 3 / 4

	if err := c.font(fonts.Italic, sizeSmall); err != nil {
		return err
	}
	captionH := 2 * c.lineHeight()

	for row := 0; row*2 < len(photos); row++ {
		top := c.y
		for col := 0; col < 2; col++ {
			i := row*2 + col
			if i >= len(photos) {
				break
			}
			x := c.left + float64(col)*(cellW+gap)
			c.box(x, top, cellW, cellH, c.theme.Text)
			if !c.dry && len(photos[i].Image.Data) > 0 {
				img, err := decode(photos[i].Image.Data, int(cellW), int(cellH))
				if err != nil {
					return errors.Render(err, "decode photo %d", page.ItemOffset+i+1)
				}
				c.image(img, x, top, cellW, cellH)
			}
			c.y = top + cellH + c.pt(3)
			if err := c.textIn(photos[i].Caption, fonts.Italic, sizeSmall, gg.AlignCenter, c.theme.Text, x, cellW); err != nil {
				return err
			}
		}
		c.y = top + cellH + c.pt(3) + captionH + gap
	}
	return nil
}

// signatures lays signatories out two per row, each with room to sign.
func (r *Raster) signatures(c *canvas, doc *document.Document, signers []document.Signatory) error {
	if err := c.text(doc.Header.Place+", "+FormatDate(doc.Header.Date), fonts.Regular, sizeBody, gg.AlignRight, c.theme.Text); err != nil {
		return err
	}
	c.space(8)

	colW := c.width() / 2
	for row := 0; row*2 < len(signers); row++ {
		top := c.y
		bottom := top
		n := min(2, len(signers)-row*2)
		for col := 0; col < n; col++ {
			s := signers[row*2+col]
			x := c.left + float64(col)*colW
			if n == 1 {
				x = c.left + colW/2
			}
			c.y = top
			if err := c.textIn(s.Role, fonts.Regular, sizeBody, gg.AlignCenter, c.theme.Text, x, colW); err != nil {
				return err
			}
			c.y += c.mm(20)
			if err := c.textIn(s.Name, fonts.Bold, sizeBody, gg.AlignCenter, c.theme.Text, x, colW); err != nil {
				return err
			}
			if !c.dry {
				nw, _ := c.dc.MeasureString(s.Name)
				c.dc.SetLineWidth(c.pt(0.6))
				c.dc.DrawLine(x+colW/2-nw/2, c.y-c.pt(3), x+colW/2+nw/2, c.y-c.pt(3))
				c.dc.Stroke()
			}
			bottom = math.Max(bottom, c.y)
		}
		c.y = bottom + c.pt(10)
	}
	return nil
}

func (r *Raster) structure(ctx context.Context, c *canvas, page paginate.PageDescriptor, charts map[int]image.Image) error {
	chart, ok := charts[page.SectionIndex]
	if !ok {
		dot := orgchart.ToDOT(page.Content.Tiers, orgchart.Options{Color: hex(c.theme.Primary)})
		start := time.Now()
		img, err := r.chart(ctx, dot)
		if err != nil {
			return errors.Render(err, "render organization chart")
		}
		if err := render.CheckImage(img, 0, 0); err != nil {
			return err
		}
		r.logger.Debug("organization chart rendered", "tiers", len(page.Content.Tiers), "duration", time.Since(start))
		charts[page.SectionIndex] = img
		chart = img
	}

	b := chart.Bounds()
	w := c.width()
	h := w * float64(b.Dy()) / float64(b.Dx())
	if !math.IsInf(c.bottom, 1) {
		if avail := c.bottom - c.y; h > avail && avail > 0 {
			h = avail
			w = h * float64(b.Dx()) / float64(b.Dy())
		}
	}
	if !c.dry {
		fitted := imaging.Fit(chart, int(w), int(h), imaging.Lanczos)
		c.image(fitted, c.left, c.y, c.width(), h)
	}
	c.y += h
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a PNG or JPEG and fits it inside w×h.
func decode(data []byte, w, h int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return img, nil
	}
	return imaging.Fit(img, w, h, imaging.Lanczos), nil
}

func hex(c interface{ RGBA() (r, g, b, a uint32) }) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8)
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate writes a date the Indonesian way: "1 Maret 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}
