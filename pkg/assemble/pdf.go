package assemble

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
)

// Output formats.
const (
	MIMEPDF = "application/pdf"
	ExtPDF  = "pdf"
)

// Metadata is written into the output file's document information.
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Writer collects page images into a multi-page file.
type Writer interface {
	// AddPage places img at the top-left of a new page of the physical size.
	AddPage(img image.Image) error

	// Finish returns the encoded file. The writer is unusable afterwards.
	Finish() ([]byte, error)

	MIMEType() string
	Ext() string
}

// WriterFunc creates a writer for one artifact.
type WriterFunc func(geom paginate.Geometry, meta Metadata) Writer

// PDFWriter writes pages into a PDF whose pages all have the geometry's
// physical size. Images are embedded losslessly as PNG.
type PDFWriter struct {
	pdf   *fpdf.Fpdf
	geom  paginate.Geometry
	pages int
}

// NewPDF starts a PDF for geom.
func NewPDF(geom paginate.Geometry, meta Metadata) Writer {
	geom = geom.WithDefaults()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: geom.WidthMM, Ht: geom.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(meta.Creator, true)
	return &PDFWriter{pdf: pdf, geom: geom}
}

// AddPage embeds img at the page's pixel density. A short image, such as
// the last band of a continuous flow, keeps its natural height.
func (w *PDFWriter) AddPage(img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return errors.Render(err, "encode page %d", w.pages+1)
	}

	w.pages++
	name := fmt.Sprintf("page-%d", w.pages)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

	w.pdf.AddPageFormat("P", fpdf.SizeType{Wd: w.geom.WidthMM, Ht: w.geom.HeightMM})
	w.pdf.RegisterImageOptionsReader(name, opts, &buf)

	b := img.Bounds()
	width := pxToMM(b.Dx(), w.geom.DPI)
	height := pxToMM(b.Dy(), w.geom.DPI)
	w.pdf.ImageOptions(name, 0, 0, width, height, false, opts, 0, "")

	if err := w.pdf.Error(); err != nil {
		return errors.Render(err, "place page %d", w.pages)
	}
	return nil
}

// Finish encodes the PDF.
func (w *PDFWriter) Finish() ([]byte, error) {
	if w.pages == 0 {
		return nil, errors.New(errors.ErrCodeEmptyImage, "document has no pages")
	}
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, errors.Render(err, "write pdf")
	}
	return buf.Bytes(), nil
}

// Pages returns the number of pages added so far.
func (w *PDFWriter) Pages() int { return w.pages }

func (w *PDFWriter) MIMEType() string { return MIMEPDF }
func (w *PDFWriter) Ext() string      { return ExtPDF }

func pxToMM(px, dpi int) float64 {
	return float64(px) / float64(dpi) * 25.4
}
