// Package pipeline turns stored letters into downloadable files.
//
// This package implements the complete load → gate → paginate → render →
// assemble pipeline used by the CLI and the API server. Centralizing it
// keeps caching, permission checks and file naming identical across entry
// points.
//
// # Architecture
//
// An export runs five stages:
//
//  1. Load: fetch the record from the store (always; a cached status is never trusted)
//  2. Gate: [lifecycle.CanExport] against the freshly loaded status
//  3. Paginate: split sections into page descriptors per the kind's policy
//  4. Render: rasterize each page (or one continuous flow) through the backend
//  5. Assemble: place the images on PDF pages and name the file
//
// Render and assemble results are cached under the document's content hash,
// so re-exporting an unchanged letter skips rasterization.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, st, artifactCache, nil, logger)
//	art, err := runner.Export(ctx, "7f3c...", actor)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(art.FileName, art.Bytes, 0o644)
//
// Mail merge over the same pipeline:
//
//	res, err := runner.Batch(ctx, id, actor, recipients, pipeline.BatchOptions{})
//	os.WriteFile("letters.zip", res.Archive, 0o644)
package pipeline

import (
	"time"

	"github.com/suratkita/suratkita/pkg/assemble"
	"github.com/suratkita/suratkita/pkg/cache"
	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/merge"
	"github.com/suratkita/suratkita/pkg/paginate"
)

// FormatPDF is the only output format.
const FormatPDF = "pdf"

// =============================================================================
// Options
// =============================================================================

// Options adjusts a single export. The zero value uses the configuration.
type Options struct {
	// Policy overrides the configured pagination policy of the document kind.
	Policy *paginate.Policy

	// Strategy overrides [assemble.StrategyFor].
	Strategy assemble.Strategy

	// Refresh bypasses the artifact cache for reads; the result is still stored.
	Refresh bool

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults resolves the policy and strategy for kind.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults(cfg *config.Config, kind document.Kind) error {
	if o.validated {
		return nil
	}
	if !kind.Valid() {
		return errors.Validation("unknown document kind %q", kind)
	}
	if o.Policy == nil {
		p := cfg.Policy(kind)
		o.Policy = &p
	}
	o.Policy.Geometry = o.Policy.Geometry.WithDefaults()
	if err := o.Policy.Validate(); err != nil {
		return err
	}
	switch o.Strategy {
	case "":
		o.Strategy = assemble.StrategyFor(kind)
	case assemble.Discrete, assemble.Flow:
	default:
		return errors.Validation("unknown assembly strategy %q", o.Strategy)
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for the artifact.
func (o *Options) ArtifactKeyOpts(overflow string, version string) cache.ArtifactKeyOpts {
	capacity := make(map[string]int, len(o.Policy.Capacity))
	for k, v := range o.Policy.Capacity {
		capacity[string(k)] = v
	}
	return cache.ArtifactKeyOpts{
		Strategy: string(o.Strategy),
		Geometry: o.Policy.Geometry,
		Capacity: capacity,
		Overflow: overflow,
		Format:   FormatPDF,
		Version:  version,
	}
}

// BatchOptions adjusts a mail merge run.
type BatchOptions struct {
	Options

	// Workers overrides batch.workers from the configuration.
	Workers int

	// OnProgress is called after each recipient.
	OnProgress merge.ProgressFunc
}

// =============================================================================
// Results
// =============================================================================

// RenderedArtifact is the output of an export.
type RenderedArtifact struct {
	Bytes    []byte
	MIMEType string
	FileName string
	Pages    int

	// ContentHash identifies the exact document content that was rendered.
	ContentHash string

	Stats Stats
}

// Stats contains export timing and cache information.
type Stats struct {
	LoadTime   time.Duration
	RenderTime time.Duration
	CacheHit   bool
}
