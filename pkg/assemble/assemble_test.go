package assemble

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"testing"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
)

var geom = paginate.Geometry{WidthMM: 210, HeightMM: 297, MarginMM: 20, DPI: 20}

type fakeBackend struct {
	flowHeight int
	failAt     int // 1-based page index that fails; 0 never
	seen       []int
	empty      bool
}

func (f *fakeBackend) RenderPage(_ context.Context, _ *document.Document, p paginate.PageDescriptor, g paginate.Geometry) (image.Image, error) {
	f.seen = append(f.seen, p.PageIndex)
	if p.PageIndex == f.failAt {
		return nil, errors.Render(stderrors.New("boom"), "page %d", p.PageIndex)
	}
	if f.empty {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	w, h := g.PixelSize()
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

func (f *fakeBackend) RenderFlow(_ context.Context, _ *document.Document, g paginate.Geometry) (image.Image, error) {
	w, _ := g.PixelSize()
	return image.NewNRGBA(image.Rect(0, 0, w, f.flowHeight)), nil
}

type recordingWriter struct {
	heights []int
}

func (r *recordingWriter) AddPage(img image.Image) error {
	r.heights = append(r.heights, img.Bounds().Dy())
	return nil
}
func (r *recordingWriter) Finish() ([]byte, error) { return []byte("ok"), nil }
func (r *recordingWriter) MIMEType() string        { return "test/plain" }
func (r *recordingWriter) Ext() string             { return "txt" }

func descriptors(n int) []paginate.PageDescriptor {
	pages := make([]paginate.PageDescriptor, n)
	for i := range pages {
		pages[i] = paginate.PageDescriptor{SectionIndex: i, SectionKind: document.SectionText, ChunkCount: 1, IsFinalChunk: true}
	}
	return pages
}

func TestBandCount(t *testing.T) {
	tests := []struct{ h, p, want int }{
		{0, 100, 0},
		{1, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{350, 100, 4},
		{50, 0, 0},
	}
	for _, tt := range tests {
		if got := BandCount(tt.h, tt.p); got != tt.want {
			t.Errorf("BandCount(%d, %d) = %d, want %d", tt.h, tt.p, got, tt.want)
		}
	}
}

func TestSlice(t *testing.T) {
	tests := []struct {
		h, p     int
		wantLast int
	}{
		{350, 100, 50},
		{300, 100, 100},
		{99, 100, 99},
		{1001, 250, 1},
	}
	for _, tt := range tests {
		img := image.NewNRGBA(image.Rect(0, 0, 40, tt.h))
		bands, err := Slice(img, tt.p)
		if err != nil {
			t.Fatalf("Slice(%d, %d): %v", tt.h, tt.p, err)
		}
		if len(bands) != BandCount(tt.h, tt.p) {
			t.Errorf("Slice(%d, %d) = %d bands", tt.h, tt.p, len(bands))
		}
		total := 0
		for i, b := range bands {
			if b.Bounds().Dx() != 40 {
				t.Errorf("band %d width = %d", i, b.Bounds().Dx())
			}
			if i < len(bands)-1 && b.Bounds().Dy() != tt.p {
				t.Errorf("band %d height = %d, want %d", i, b.Bounds().Dy(), tt.p)
			}
			total += b.Bounds().Dy()
		}
		last := bands[len(bands)-1].Bounds().Dy()
		if last != tt.wantLast || last != tt.h-tt.p*(len(bands)-1) {
			t.Errorf("Slice(%d, %d) last band = %d, want %d", tt.h, tt.p, last, tt.wantLast)
		}
		if total != tt.h {
			t.Errorf("bands cover %d px of %d", total, tt.h)
		}
	}
}

func TestSliceRejects(t *testing.T) {
	if _, err := Slice(nil, 10); !errors.Is(err, errors.ErrCodeEmptyImage) {
		t.Errorf("Slice(nil) error = %v", err)
	}
	if _, err := Slice(image.NewNRGBA(image.Rect(0, 0, 10, 10)), 0); err == nil {
		t.Error("Slice with zero band succeeded")
	}
	if _, err := Slice(image.NewNRGBA(image.Rect(0, 0, 10, 0)), 10); !errors.Is(err, errors.ErrCodeEmptyImage) {
		t.Errorf("Slice(empty) error = %v", err)
	}
}

func TestStrategyFor(t *testing.T) {
	want := map[document.Kind]Strategy{
		document.KindProposal:        Discrete,
		document.KindInvitation:      Discrete,
		document.KindGenericLetter:   Discrete,
		document.KindFinancialReport: Flow,
	}
	for k, s := range want {
		if got := StrategyFor(k); got != s {
			t.Errorf("StrategyFor(%s) = %s, want %s", k, got, s)
		}
	}
}

func newTestAssembler(b *fakeBackend, w *recordingWriter) *Assembler {
	return &Assembler{
		Backend:   b,
		NewWriter: func(paginate.Geometry, Metadata) Writer { return w },
	}
}

func TestAssembleDiscreteNumbersPages(t *testing.T) {
	b := &fakeBackend{}
	w := &recordingWriter{}
	art, err := newTestAssembler(b, w).Assemble(context.Background(), &document.Document{}, descriptors(4), geom, Discrete, "surat")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if art.Pages != 4 || len(w.heights) != 4 {
		t.Errorf("pages = %d, written = %d", art.Pages, len(w.heights))
	}
	for i, idx := range b.seen {
		if idx != i+1 {
			t.Errorf("render %d got PageIndex %d", i, idx)
		}
	}
	if art.FileName != "surat.txt" || art.MIMEType != "test/plain" {
		t.Errorf("artifact = %s (%s)", art.FileName, art.MIMEType)
	}
}

func TestAssembleDiscreteStopsOnError(t *testing.T) {
	b := &fakeBackend{failAt: 2}
	w := &recordingWriter{}
	_, err := newTestAssembler(b, w).Assemble(context.Background(), &document.Document{}, descriptors(4), geom, Discrete, "x")
	if !errors.IsCategory(err, errors.CategoryRender) {
		t.Fatalf("Assemble() error = %v, want render error", err)
	}
	if len(b.seen) != 2 || len(w.heights) != 1 {
		t.Errorf("rendered %d pages and wrote %d after failure", len(b.seen), len(w.heights))
	}
}

func TestAssembleRejectsEmptyImage(t *testing.T) {
	_, err := newTestAssembler(&fakeBackend{empty: true}, &recordingWriter{}).
		Assemble(context.Background(), &document.Document{}, descriptors(1), geom, Discrete, "x")
	if !errors.Is(err, errors.ErrCodeEmptyImage) {
		t.Errorf("Assemble() error = %v, want EMPTY_IMAGE", err)
	}
}

func TestAssembleFlow(t *testing.T) {
	_, ph := geom.PixelSize()
	b := &fakeBackend{flowHeight: 2*ph + 17}
	w := &recordingWriter{}
	art, err := newTestAssembler(b, w).Assemble(context.Background(), &document.Document{}, nil, geom, Flow, "laporan")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if art.Pages != 3 {
		t.Fatalf("pages = %d, want 3", art.Pages)
	}
	if w.heights[0] != ph || w.heights[1] != ph || w.heights[2] != 17 {
		t.Errorf("band heights = %v", w.heights)
	}
}

func TestAssembleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAssembler(&fakeBackend{}, &recordingWriter{}).Assemble(ctx, &document.Document{}, descriptors(2), geom, Discrete, "x")
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Errorf("Assemble() error = %v", err)
	}
}

func TestPDFWriter(t *testing.T) {
	w := NewPDF(geom, Metadata{Title: "Proposal Kegiatan", Author: "Karang Taruna"})
	if _, err := w.Finish(); !errors.Is(err, errors.ErrCodeEmptyImage) {
		t.Errorf("Finish() on empty pdf error = %v", err)
	}

	w = NewPDF(geom, Metadata{Title: "Laporan"})
	pw, ph := geom.PixelSize()
	for _, h := range []int{ph, ph / 3} {
		if err := w.AddPage(image.NewNRGBA(image.Rect(0, 0, pw, h))); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}
	data, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", data[:min(8, len(data))])
	}
	if w.MIMEType() != MIMEPDF || w.Ext() != ExtPDF {
		t.Errorf("writer type = %s/%s", w.MIMEType(), w.Ext())
	}
	if got := w.(*PDFWriter).Pages(); got != 2 {
		t.Errorf("Pages() = %d", got)
	}
}

func TestAssembleUnknownStrategy(t *testing.T) {
	_, err := newTestAssembler(&fakeBackend{}, &recordingWriter{}).
		Assemble(context.Background(), &document.Document{}, descriptors(1), geom, Strategy("scroll"), "x")
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("Assemble() error = %v", err)
	}
}
