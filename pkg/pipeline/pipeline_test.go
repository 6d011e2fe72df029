package pipeline

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/assemble"
	"github.com/suratkita/suratkita/pkg/cache"
	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/store"
	"github.com/suratkita/suratkita/pkg/store/memory"
)

var (
	author   = lifecycle.Actor{ID: "u1", Role: lifecycle.RoleAuthor}
	reviewer = lifecycle.Actor{ID: "r1", Role: lifecycle.RoleReviewer}
	member   = lifecycle.Actor{ID: "m1", Role: lifecycle.RoleMember}
)

// blankBackend draws empty pages of the requested size and counts calls.
type blankBackend struct {
	mu    sync.Mutex
	pages int
	flows int
}

func (b *blankBackend) RenderPage(_ context.Context, _ *document.Document, _ paginate.PageDescriptor, g paginate.Geometry) (image.Image, error) {
	b.mu.Lock()
	b.pages++
	b.mu.Unlock()
	w, h := g.PixelSize()
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

// RenderFlow returns two and a half pages of content.
func (b *blankBackend) RenderFlow(_ context.Context, _ *document.Document, g paginate.Geometry) (image.Image, error) {
	b.mu.Lock()
	b.flows++
	b.mu.Unlock()
	w, h := g.PixelSize()
	return image.NewNRGBA(image.Rect(0, 0, w, 2*h+h/2)), nil
}

func (b *blankBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages + b.flows
}

func newTestRunner(t *testing.T) (*Runner, *memory.Store, *blankBackend) {
	t.Helper()
	cfg, err := config.Parse("[render]\ndpi = 30\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	mem := memory.New()
	r := NewRunner(cfg, mem, c, nil, nil)
	b := &blankBackend{}
	r.Backend = b
	t.Cleanup(func() { _ = r.Close() })
	return r, mem, b
}

func invitation() *document.Document {
	d := document.New(document.KindInvitation, author.ID, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	d.ID = "doc-1"
	d.Header.LetterNumber = "001/RW05/V/2024"
	d.Header.Subject = "Undangan Rapat"
	d.Header.Date = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	d.Recipient = document.Recipient{Name: "Bapak Ketua RT 01", Title: "Ketua RT"}
	d.AddSection(document.Section{Kind: document.SectionText, Text: "Dengan hormat, kami mengundang Bapak/Ibu."})
	return d
}

func seed(t *testing.T, mem *memory.Store, doc *document.Document) {
	t.Helper()
	rec, err := store.FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if err := mem.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestExportGate(t *testing.T) {
	r, mem, b := newTestRunner(t)
	seed(t, mem, invitation())
	ctx := context.Background()

	if _, err := r.Export(ctx, "doc-1", member); !errors.IsCategory(err, errors.CategoryPermission) {
		t.Fatalf("member export of draft error = %v, want permission", err)
	}
	if b.calls() != 0 {
		t.Errorf("backend called %d times for a denied export", b.calls())
	}

	art, err := r.Export(ctx, "doc-1", reviewer)
	if err != nil {
		t.Fatalf("reviewer export: %v", err)
	}
	if art.FileName != "Undangan_Rapat.pdf" || art.MIMEType != "application/pdf" || art.Pages != 1 {
		t.Errorf("artifact = %s %s %d pages", art.FileName, art.MIMEType, art.Pages)
	}
}

func TestExportUsesStoredStatus(t *testing.T) {
	r, mem, _ := newTestRunner(t)
	seed(t, mem, invitation())
	ctx := context.Background()

	if err := mem.SetStatus(ctx, "doc-1", document.StatusApproved, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Export(ctx, "doc-1", member); err != nil {
		t.Fatalf("member export of approved letter: %v", err)
	}

	// A later rejection is seen by the next export.
	if err := mem.SetStatus(ctx, "doc-1", document.StatusRejected, "salah tanggal"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Export(ctx, "doc-1", member); !errors.IsCategory(err, errors.CategoryPermission) {
		t.Errorf("export after rejection error = %v, want permission", err)
	}
}

func TestExportCache(t *testing.T) {
	r, mem, b := newTestRunner(t)
	seed(t, mem, invitation())
	ctx := context.Background()

	first, err := r.Export(ctx, "doc-1", reviewer)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHit {
		t.Error("first export reported a cache hit")
	}
	calls := b.calls()

	if err := mem.SetStatus(ctx, "doc-1", document.StatusApproved, ""); err != nil {
		t.Fatal(err)
	}
	second, err := r.Export(ctx, "doc-1", member)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Stats.CacheHit || b.calls() != calls {
		t.Errorf("approval invalidated the cache (hit %v, calls %d -> %d)", second.Stats.CacheHit, calls, b.calls())
	}
	if second.ContentHash != first.ContentHash || string(second.Bytes) != string(first.Bytes) {
		t.Error("cached artifact differs from the rendered one")
	}

	refreshed, err := r.ExportWithOptions(ctx, "doc-1", reviewer, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Stats.CacheHit || b.calls() == calls {
		t.Error("refresh did not re-render")
	}
}

func TestExportContentChangeMisses(t *testing.T) {
	r, mem, b := newTestRunner(t)
	doc := invitation()
	seed(t, mem, doc)
	ctx := context.Background()

	first, err := r.Export(ctx, "doc-1", reviewer)
	if err != nil {
		t.Fatal(err)
	}
	calls := b.calls()

	doc.Sections[0].Text = "Dengan hormat, rapat diundur."
	rec, err := store.FromDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.Update(ctx, rec); err != nil {
		t.Fatal(err)
	}
	second, err := r.Export(ctx, "doc-1", reviewer)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.CacheHit || b.calls() == calls || second.ContentHash == first.ContentHash {
		t.Error("changed content was served from cache")
	}
}

func TestExportBudgetPages(t *testing.T) {
	r, _, _ := newTestRunner(t)
	doc := document.New(document.KindProposal, author.ID, time.Unix(0, 0))
	doc.ID = "prop-1"
	doc.Header.Subject = "Proposal Kegiatan"
	i := doc.AddSection(document.Section{Kind: document.SectionBudget, Title: "Anggaran"})
	for n := 0; n < 32; n++ {
		if err := doc.AddBudgetItem(i, document.NewBudgetItem("Konsumsi", "Nasi kotak", 10, "kotak", 25000)); err != nil {
			t.Fatal(err)
		}
	}

	art, err := r.ExportDocument(context.Background(), doc, reviewer)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if art.Pages != 3 {
		t.Errorf("32 budget rows rendered on %d pages, want 3", art.Pages)
	}
}

func TestExportFinancialReportFlows(t *testing.T) {
	r, _, b := newTestRunner(t)
	doc := document.New(document.KindFinancialReport, author.ID, time.Unix(0, 0))
	doc.ID = "lap-1"
	doc.Header.Subject = "Laporan Kas"
	doc.AddSection(document.Section{Kind: document.SectionText, Text: "Ringkasan"})

	art, err := r.ExportDocument(context.Background(), doc, reviewer)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if art.Pages != 3 || b.flows != 1 || b.pages != 0 {
		t.Errorf("pages %d, flows %d, discrete %d", art.Pages, b.flows, b.pages)
	}
}

func TestOptionsValidate(t *testing.T) {
	cfg := config.Default()

	var o Options
	if err := o.ValidateAndSetDefaults(cfg, document.KindFinancialReport); err != nil {
		t.Fatal(err)
	}
	if o.Strategy != "flow" || o.Policy == nil {
		t.Errorf("defaults = %+v", o)
	}

	bad := Options{Strategy: "scroll"}
	if err := bad.ValidateAndSetDefaults(cfg, document.KindInvitation); err == nil {
		t.Error("unknown strategy accepted")
	}
	var unknown Options
	if err := unknown.ValidateAndSetDefaults(cfg, "MEMO"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestBatch(t *testing.T) {
	r, mem, b := newTestRunner(t)
	seed(t, mem, invitation())
	ctx := context.Background()
	recs := []document.Recipient{{Name: "Budi"}, {Name: "Siti Aminah"}}

	if _, err := r.Batch(ctx, "doc-1", member, recs, BatchOptions{}); !errors.IsCategory(err, errors.CategoryPermission) {
		t.Fatalf("member batch error = %v, want permission", err)
	}
	if b.calls() != 0 {
		t.Errorf("denied batch rendered %d pages", b.calls())
	}

	var progress int
	res, err := r.Batch(ctx, "doc-1", reviewer, recs, BatchOptions{
		Workers:    2,
		OnProgress: func(done, total int, _ string) { progress = done },
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(res.Artifacts) != 2 || len(res.Failures) != 0 || len(res.Archive) == 0 {
		t.Fatalf("result = %d artifacts, %d failures", len(res.Artifacts), len(res.Failures))
	}
	if res.Artifacts[0].FileName != "1_Budi.pdf" || res.Artifacts[1].FileName != "2_Siti_Aminah.pdf" {
		t.Errorf("names = %s, %s", res.Artifacts[0].FileName, res.Artifacts[1].FileName)
	}
	if progress != 2 {
		t.Errorf("progress = %d", progress)
	}

	if _, err := r.Batch(ctx, "doc-1", reviewer, nil, BatchOptions{}); err == nil {
		t.Error("batch without recipients succeeded")
	}
}

func TestContentHashIgnoresLifecycle(t *testing.T) {
	a := invitation()
	b := a.Clone()
	b.SetStatus(document.StatusRejected, "ulang")
	b.Touch(time.Now())

	ha, err := ContentHash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := ContentHash(b)
	if ha != hb {
		t.Error("lifecycle change altered the content hash")
	}
	b.Header.Subject = "Lain"
	if hc, _ := ContentHash(b); hc == ha {
		t.Error("subject change kept the content hash")
	}
}

func TestLoadRejectsBadID(t *testing.T) {
	r, _, _ := newTestRunner(t)
	if _, err := r.Load(context.Background(), "  "); err == nil {
		t.Error("blank id accepted")
	}
	if _, err := r.Load(context.Background(), "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing id error = %v", err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, memory.New(), nil, nil, nil)
	if r.Logger == nil || r.Logger == log.Default() {
		t.Error("nil logger should default to a discarding logger, not the global one")
	}
	if r.Keyer == nil || r.Config == nil || r.Cache == nil {
		t.Errorf("defaults not applied: %+v", r)
	}
}

func TestLayoutByStrategy(t *testing.T) {
	cfg := config.Default()
	doc := document.New(document.KindFinancialReport, author.ID, time.Unix(0, 0))
	doc.AddSection(document.Section{Kind: document.SectionText, Text: "Ringkasan"})
	doc.AddSection(document.Section{Kind: document.SectionBudget, Title: "Kas"})

	var flow Options
	if err := flow.ValidateAndSetDefaults(cfg, doc.Kind); err != nil {
		t.Fatal(err)
	}
	pages, err := layout(doc, flow)
	if err != nil || pages != nil {
		t.Errorf("flow layout = %d pages, %v; want none", len(pages), err)
	}

	discrete := Options{Strategy: assemble.Discrete}
	if err := discrete.ValidateAndSetDefaults(cfg, doc.Kind); err != nil {
		t.Fatal(err)
	}
	pages, err = layout(doc, discrete)
	if err != nil || len(pages) != 2 {
		t.Errorf("discrete layout = %d pages, %v; want 2", len(pages), err)
	}
}
