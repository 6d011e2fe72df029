package merge

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/suratkita/suratkita/pkg/assemble"
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/observability"
)

// RenderFunc turns one resolved document into an artifact.
type RenderFunc func(ctx context.Context, doc *document.Document) (*assemble.Artifact, error)

// ProgressFunc is called after each recipient finishes, successfully or not.
type ProgressFunc func(done, total int, name string)

// Driver runs a mail merge.
type Driver struct {
	Render RenderFunc

	// Workers is the number of concurrent renders. Values below 2 render
	// sequentially. Every worker renders its own resolved copy, and results
	// are always reported in recipient order.
	Workers int

	OnProgress ProgressFunc
	Logger     *log.Logger
}

// Artifact is one recipient's rendered letter.
type Artifact struct {
	Index     int // 1-based position in the recipient list
	Recipient document.Recipient
	FileName  string
	MIMEType  string
	Bytes     []byte
	Pages     int
}

// Failure records a recipient whose letter could not be rendered.
type Failure struct {
	Index  int
	Name   string
	Reason string
	Err    error
}

// BatchResult is the outcome of a run.
type BatchResult struct {
	Artifacts []Artifact // successes, in recipient order
	Failures  []Failure  // failures, in recipient order
	Archive   []byte     // ZIP of Artifacts; nil when nothing succeeded
	Total     int
	Canceled  bool // the run stopped before every recipient was attempted
	Skipped   int  // recipients not attempted because of cancellation
}

// ArchiveMIMEType is the media type of BatchResult.Archive.
const ArchiveMIMEType = "application/zip"

// Summary returns a one-paragraph report of the run for the user.
func (r *BatchResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d letters generated", len(r.Artifacts), r.Total)
	if r.Canceled {
		fmt.Fprintf(&b, "; canceled with %d not attempted", r.Skipped)
	}
	if len(r.Failures) > 0 {
		b.WriteString("; failed:")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "\n  %d. %s: %s", f.Index, f.Name, f.Reason)
		}
	}
	return b.String()
}

type outcome struct {
	artifact *Artifact
	failure  *Failure
	skipped  bool
}

// Run renders one letter per recipient. Cancellation is checked before each
// recipient; a render already in progress completes. The returned error is
// non-nil only when the run itself cannot proceed.
func (d *Driver) Run(ctx context.Context, base *document.Document, recipients []document.Recipient) (*BatchResult, error) {
	if d.Render == nil {
		return nil, errors.New(errors.ErrCodeInternal, "merge driver has no renderer")
	}
	if base == nil {
		return nil, errors.Validation("base document is nil")
	}
	recs := append([]document.Recipient(nil), recipients...)
	logger := d.logger()
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnBatchStart(ctx, base.ID, len(recs))
	logger.Info("batch started", "document", base.ID, "recipients", len(recs), "workers", max(1, d.Workers))

	var outcomes []outcome
	if d.Workers > 1 {
		outcomes = d.runParallel(ctx, base, recs)
	} else {
		outcomes = d.runSequential(ctx, base, recs)
	}

	res := &BatchResult{Total: len(recs)}
	for _, o := range outcomes {
		switch {
		case o.skipped:
			res.Skipped++
		case o.failure != nil:
			res.Failures = append(res.Failures, *o.failure)
		case o.artifact != nil:
			res.Artifacts = append(res.Artifacts, *o.artifact)
		}
	}
	res.Canceled = res.Skipped > 0

	if len(res.Artifacts) > 0 {
		archive, err := Archive(res.Artifacts)
		if err != nil {
			return res, err
		}
		res.Archive = archive
	}

	hooks.OnBatchComplete(ctx, base.ID, len(res.Artifacts), len(res.Failures), time.Since(start), res.Canceled)
	logger.Info("batch finished",
		"document", base.ID,
		"succeeded", len(res.Artifacts),
		"failed", len(res.Failures),
		"skipped", res.Skipped,
		"duration", time.Since(start))
	return res, nil
}

func (d *Driver) runSequential(ctx context.Context, base *document.Document, recs []document.Recipient) []outcome {
	out := make([]outcome, len(recs))
	done := 0
	for i, rec := range recs {
		if ctx.Err() != nil {
			for j := i; j < len(recs); j++ {
				out[j] = outcome{skipped: true}
			}
			break
		}
		out[i] = d.one(ctx, base, i, rec)
		done++
		d.progress(done, len(recs), rec.Name)
	}
	return out
}

func (d *Driver) runParallel(ctx context.Context, base *document.Document, recs []document.Recipient) []outcome {
	out := make([]outcome, len(recs))
	progress := make(chan string)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		done := 0
		for name := range progress {
			done++
			d.progress(done, len(recs), name)
		}
	}()

	var g errgroup.Group
	g.SetLimit(d.Workers)
	for i, rec := range recs {
		if ctx.Err() != nil {
			out[i] = outcome{skipped: true}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				out[i] = outcome{skipped: true}
				return nil
			}
			out[i] = d.one(ctx, base, i, rec)
			progress <- rec.Name
			return nil
		})
	}
	_ = g.Wait()
	close(progress)
	<-finished
	return out
}

// one resolves and renders the i-th recipient. The render runs detached from
// ctx cancellation so an in-flight letter always completes.
func (d *Driver) one(ctx context.Context, base *document.Document, i int, rec document.Recipient) outcome {
	doc := Resolve(base, rec)
	start := time.Now()
	art, err := d.Render(context.WithoutCancel(ctx), doc)
	observability.Pipeline().OnBatchRecipient(ctx, base.ID, i+1, rec.Name, err)
	if err == nil && art == nil {
		err = errors.New(errors.ErrCodeEmptyImage, "renderer returned no artifact")
	}
	if err != nil {
		d.logger().Warn("recipient failed", "index", i+1, "recipient", rec.Name, "error", err)
		return outcome{failure: &Failure{
			Index:  i + 1,
			Name:   rec.Name,
			Reason: errors.UserMessage(err),
			Err:    err,
		}}
	}
	ext := strings.TrimPrefix(extOf(art.FileName), ".")
	d.logger().Debug("recipient rendered", "index", i+1, "recipient", rec.Name, "pages", art.Pages, "duration", time.Since(start))
	return outcome{artifact: &Artifact{
		Index:     i + 1,
		Recipient: doc.Recipient,
		FileName:  ArtifactName(i+1, rec.Name, ext),
		MIMEType:  art.MIMEType,
		Bytes:     art.Bytes,
		Pages:     art.Pages,
	}}
}

func (d *Driver) progress(done, total int, name string) {
	if d.OnProgress != nil {
		d.OnProgress(done, total, name)
	}
}

func (d *Driver) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// Archive packs artifacts into a ZIP in slice order.
func Archive(artifacts []Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, a := range artifacts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   a.FileName,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add %s to archive", a.FileName)
		}
		if _, err := w.Write(a.Bytes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s to archive", a.FileName)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "close archive")
	}
	return buf.Bytes(), nil
}
