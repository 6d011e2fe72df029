// Package assemble places rendered pages into one durable multi-page file.
//
// Two strategies exist, chosen by document kind:
//
//   - [Discrete]: one rendered image per page descriptor, each on its own
//     page. Proposals, invitations and generic letters use it.
//   - [Flow]: the whole document is rendered as one tall image and sliced
//     into page-height bands ([Slice]). Financial reports use it.
//
// Global page numbers are assigned here, in placement order. When a page
// fails, no further pages are added and the error is returned; artifacts
// finished earlier are not affected.
package assemble

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/observability"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/render"
)

// Strategy selects how pages are produced.
type Strategy string

const (
	Discrete Strategy = "discrete"
	Flow     Strategy = "flow"
)

// StrategyFor returns the assembly strategy of a document kind.
func StrategyFor(kind document.Kind) Strategy {
	if kind == document.KindFinancialReport {
		return Flow
	}
	return Discrete
}

// Artifact is one assembled file.
type Artifact struct {
	Bytes    []byte
	MIMEType string
	FileName string
	Pages    int
}

// Assembler renders and places pages.
type Assembler struct {
	Backend   render.Backend
	NewWriter WriterFunc
	Creator   string
	Logger    *log.Logger
}

// New creates an assembler writing PDF.
func New(backend render.Backend, logger *log.Logger) *Assembler {
	return &Assembler{Backend: backend, NewWriter: NewPDF, Logger: logger}
}

func (a *Assembler) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard)
	}
	return a.Logger
}

func (a *Assembler) writer(doc *document.Document, geom paginate.Geometry) Writer {
	newWriter := a.NewWriter
	if newWriter == nil {
		newWriter = NewPDF
	}
	return newWriter(geom, Metadata{
		Title:   doc.Header.Subject,
		Author:  doc.Header.OrganizationName,
		Subject: doc.Header.LetterNumber,
		Creator: a.Creator,
	})
}

// Assemble produces the artifact for doc. pages is only read by the
// discrete strategy; stem names the file.
func (a *Assembler) Assemble(ctx context.Context, doc *document.Document, pages []paginate.PageDescriptor, geom paginate.Geometry, strategy Strategy, stem string) (*Artifact, error) {
	if a.Backend == nil {
		return nil, errors.New(errors.ErrCodeInternal, "assembler has no render backend")
	}
	geom = geom.WithDefaults()
	w := a.writer(doc, geom)

	var (
		n   int
		err error
	)
	switch strategy {
	case Flow:
		n, err = a.flow(ctx, doc, geom, w)
	case Discrete, "":
		n, err = a.discrete(ctx, doc, pages, geom, w)
	default:
		return nil, errors.Validation("unknown assembly strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	data, err := w.Finish()
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Bytes:    data,
		MIMEType: w.MIMEType(),
		FileName: stem + "." + w.Ext(),
		Pages:    n,
	}, nil
}

func (a *Assembler) discrete(ctx context.Context, doc *document.Document, pages []paginate.PageDescriptor, geom paginate.Geometry, w Writer) (int, error) {
	if len(pages) == 0 {
		return 0, errors.Validation("document has no sections to render")
	}
	pw, ph := geom.PixelSize()
	hooks := observability.Pipeline()

	for i := range pages {
		if err := ctx.Err(); err != nil {
			return i, errors.Wrap(errors.ErrCodeCanceled, err, "assembly canceled at page %d", i+1)
		}
		page := pages[i]
		page.PageIndex = i + 1

		start := time.Now()
		hooks.OnRenderStart(ctx, doc.ID, page.PageIndex)
		img, err := a.Backend.RenderPage(ctx, doc, page, geom)
		if err == nil {
			err = render.CheckImage(img, pw, ph)
		}
		hooks.OnRenderComplete(ctx, doc.ID, page.PageIndex, time.Since(start), err)
		if err != nil {
			a.logger().Error("page render failed", "page", page.PageIndex, "section", page.SectionKind, "error", err)
			return i, err
		}
		if err := w.AddPage(img); err != nil {
			return i, err
		}
		a.logger().Debug("page placed", "page", page.PageIndex, "section", page.SectionKind, "duration", time.Since(start))
	}
	return len(pages), nil
}

func (a *Assembler) flow(ctx context.Context, doc *document.Document, geom paginate.Geometry, w Writer) (int, error) {
	pw, ph := geom.PixelSize()
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnRenderStart(ctx, doc.ID, 0)
	img, err := a.Backend.RenderFlow(ctx, doc, geom)
	if err == nil {
		err = render.CheckImage(img, pw, 0)
	}
	hooks.OnRenderComplete(ctx, doc.ID, 0, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	bands, err := Slice(img, ph)
	if err != nil {
		return 0, err
	}
	for i, band := range bands {
		if err := w.AddPage(band); err != nil {
			return i, err
		}
	}
	a.logger().Debug("flow sliced", "height", img.Bounds().Dy(), "page_height", ph, "pages", len(bands))
	return len(bands), nil
}
