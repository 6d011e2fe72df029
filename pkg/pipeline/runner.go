package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/assemble"
	"github.com/suratkita/suratkita/pkg/buildinfo"
	"github.com/suratkita/suratkita/pkg/cache"
	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/merge"
	"github.com/suratkita/suratkita/pkg/observability"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/render"
	"github.com/suratkita/suratkita/pkg/render/raster"
	"github.com/suratkita/suratkita/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating export logic.
//
// The Runner holds no per-export state. Multiple goroutines can safely use
// the same Runner; every export loads its own copy of the document.
type Runner struct {
	Store   store.Store
	Cache   cache.Cache
	Keyer   cache.Keyer
	Backend render.Backend
	Config  *config.Config
	Logger  *log.Logger
}

// NewRunner creates a runner with the raster backend configured from cfg.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If logger is nil, output is discarded.
func NewRunner(cfg *config.Config, st store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	backend := raster.New(raster.Options{
		Overflow:      cfg.Overflow(),
		FallbackColor: cfg.Render.FallbackColor,
		Logger:        logger,
	})
	return &Runner{
		Store:   st,
		Cache:   cache.Observed(c),
		Keyer:   keyer,
		Backend: render.WithTimeout(backend, cfg.Render.Timeout),
		Config:  cfg,
		Logger:  logger,
	}
}

// Load fetches the current stored version of a document.
func (r *Runner) Load(ctx context.Context, id string) (*document.Document, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "runner has no document store")
	}
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	rec, err := r.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Document(r.Config.Render.MaxCaption)
}

// Export loads, gates and renders a stored document with default options.
func (r *Runner) Export(ctx context.Context, id string, actor lifecycle.Actor) (*RenderedArtifact, error) {
	return r.ExportWithOptions(ctx, id, actor, Options{})
}

// ExportWithOptions is [Runner.Export] with explicit options. The export
// permission is checked against the status loaded by this call.
func (r *Runner) ExportWithOptions(ctx context.Context, id string, actor lifecycle.Actor, opts Options) (*RenderedArtifact, error) {
	start := time.Now()
	doc, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	art, err := r.export(ctx, doc, actor, opts)
	if art != nil {
		art.Stats.LoadTime = loadTime
	}
	return art, err
}

// ExportDocument gates and renders an in-memory document.
func (r *Runner) ExportDocument(ctx context.Context, doc *document.Document, actor lifecycle.Actor) (*RenderedArtifact, error) {
	return r.export(ctx, doc, actor, Options{})
}

// ExportDocumentWithOptions is [Runner.ExportDocument] with explicit options.
func (r *Runner) ExportDocumentWithOptions(ctx context.Context, doc *document.Document, actor lifecycle.Actor, opts Options) (*RenderedArtifact, error) {
	return r.export(ctx, doc, actor, opts)
}

func (r *Runner) export(ctx context.Context, doc *document.Document, actor lifecycle.Actor, opts Options) (*RenderedArtifact, error) {
	if doc == nil {
		return nil, errors.Validation("document is nil")
	}
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, doc.ID, string(doc.Kind))
	start := time.Now()

	art, err := r.exportGated(ctx, doc, actor, opts)

	pages := 0
	if art != nil {
		pages = art.Pages
	}
	hooks.OnExportComplete(ctx, doc.ID, pages, time.Since(start), err)
	if err != nil {
		r.Logger.Error("export failed", "document", doc.ID, "error", err)
		return nil, err
	}
	r.Logger.Info("exported document",
		"document", doc.ID,
		"file", art.FileName,
		"pages", art.Pages,
		"cached", art.Stats.CacheHit,
		"duration", time.Since(start))
	return art, nil
}

func (r *Runner) exportGated(ctx context.Context, doc *document.Document, actor lifecycle.Actor, opts Options) (*RenderedArtifact, error) {
	if err := lifecycle.CanExport(doc, actor); err != nil {
		return nil, err
	}
	return r.render(ctx, doc, opts)
}

// RenderDocument renders doc without a permission check. It is the
// [merge.RenderFunc] used for batch runs, whose gate is checked once.
func (r *Runner) RenderDocument(ctx context.Context, doc *document.Document) (*assemble.Artifact, error) {
	art, err := r.render(ctx, doc, Options{})
	if err != nil {
		return nil, err
	}
	return art.artifact(), nil
}

// Batch loads a stored document and renders one letter per recipient.
// The export gate is checked once, before the first recipient.
func (r *Runner) Batch(ctx context.Context, id string, actor lifecycle.Actor, recipients []document.Recipient, opts BatchOptions) (*merge.BatchResult, error) {
	doc, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.BatchDocument(ctx, doc, actor, recipients, opts)
}

// BatchDocument is [Runner.Batch] for an in-memory document.
func (r *Runner) BatchDocument(ctx context.Context, doc *document.Document, actor lifecycle.Actor, recipients []document.Recipient, opts BatchOptions) (*merge.BatchResult, error) {
	if doc == nil {
		return nil, errors.Validation("document is nil")
	}
	if err := lifecycle.CanExport(doc, actor); err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, errors.Validation("batch needs at least one recipient")
	}
	// Validated once here; every worker reads the same resolved policy.
	if err := opts.Options.ValidateAndSetDefaults(r.Config, doc.Kind); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = r.Config.Batch.Workers
	}
	d := merge.Driver{
		Render: func(ctx context.Context, resolved *document.Document) (*assemble.Artifact, error) {
			art, err := r.render(ctx, resolved, opts.Options)
			if err != nil {
				return nil, err
			}
			return art.artifact(), nil
		},
		Workers:    workers,
		OnProgress: opts.OnProgress,
		Logger:     r.Logger,
	}
	return d.Run(ctx, doc, recipients)
}

// =============================================================================
// Rendering with cache
// =============================================================================

// cachedArtifact is the cache encoding of a rendered artifact.
type cachedArtifact struct {
	Bytes    []byte `json:"bytes"`
	MIMEType string `json:"mime_type"`
	FileName string `json:"file_name"`
	Pages    int    `json:"pages"`
}

func (r *Runner) render(ctx context.Context, doc *document.Document, opts Options) (*RenderedArtifact, error) {
	if err := opts.ValidateAndSetDefaults(r.Config, doc.Kind); err != nil {
		return nil, err
	}
	hash, err := ContentHash(doc)
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(string(r.Config.Overflow()), buildinfo.Version))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var c cachedArtifact
			if err := json.Unmarshal(data, &c); err == nil && len(c.Bytes) > 0 {
				return &RenderedArtifact{
					Bytes:       c.Bytes,
					MIMEType:    c.MIMEType,
					FileName:    c.FileName,
					Pages:       c.Pages,
					ContentHash: hash,
					Stats:       Stats{CacheHit: true},
				}, nil
			}
			// Undecodable entry: fall through and re-render
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
	}

	start := time.Now()
	pages, err := layout(doc, opts)
	if err != nil {
		return nil, err
	}
	asm := assemble.New(r.Backend, r.Logger)
	asm.Creator = "suratkita " + buildinfo.Version
	art, err := asm.Assemble(ctx, doc, pages, opts.Policy.Geometry, opts.Strategy, doc.FileStem())
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedArtifact{Bytes: art.Bytes, MIMEType: art.MIMEType, FileName: art.FileName, Pages: art.Pages}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.Config.Cache.TTL); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		}
	}

	return &RenderedArtifact{
		Bytes:       art.Bytes,
		MIMEType:    art.MIMEType,
		FileName:    art.FileName,
		Pages:       art.Pages,
		ContentHash: hash,
		Stats:       Stats{RenderTime: time.Since(start)},
	}, nil
}

func (a *RenderedArtifact) artifact() *assemble.Artifact {
	return &assemble.Artifact{
		Bytes:    a.Bytes,
		MIMEType: a.MIMEType,
		FileName: a.FileName,
		Pages:    a.Pages,
	}
}

// layout paginates doc for the discrete strategy. A flow document is
// rendered whole and sliced afterwards, so it has no page descriptors.
func layout(doc *document.Document, opts Options) ([]paginate.PageDescriptor, error) {
	if opts.Strategy == assemble.Flow {
		return nil, nil
	}
	return paginate.Paginate(doc, *opts.Policy)
}

// ContentHash hashes everything that affects the rendered output. Lifecycle
// fields are excluded, so approving a letter does not invalidate its file.
func ContentHash(doc *document.Document) (string, error) {
	c := doc.Clone()
	c.Status = ""
	c.RejectionNote = ""
	c.UpdatedAt = time.Time{}
	c.Version = 0
	data, err := document.Marshal(c)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash document %s", doc.ID)
	}
	return cache.Hash(data), nil
}

// Close releases resources held by the runner (cache and store).
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
