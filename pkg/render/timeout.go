package render

import (
	"context"
	stderrors "errors"
	"image"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
)

// WithTimeout bounds every call to next with its own deadline d. A call
// that runs past the deadline returns a RENDER_TIMEOUT error; the backend
// goroutine is abandoned and its result discarded. A non-positive d returns
// next unchanged.
func WithTimeout(next Backend, d time.Duration) Backend {
	if d <= 0 {
		return next
	}
	return &timeoutBackend{next: next, timeout: d}
}

type timeoutBackend struct {
	next    Backend
	timeout time.Duration
}

func (t *timeoutBackend) RenderPage(ctx context.Context, doc *document.Document, page paginate.PageDescriptor, geom paginate.Geometry) (image.Image, error) {
	return t.run(ctx, func(ctx context.Context) (image.Image, error) {
		return t.next.RenderPage(ctx, doc, page, geom)
	})
}

func (t *timeoutBackend) RenderFlow(ctx context.Context, doc *document.Document, geom paginate.Geometry) (image.Image, error) {
	return t.run(ctx, func(ctx context.Context) (image.Image, error) {
		return t.next.RenderFlow(ctx, doc, geom)
	})
}

type result struct {
	img image.Image
	err error
}

func (t *timeoutBackend) run(ctx context.Context, fn func(context.Context) (image.Image, error)) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		img, err := fn(ctx)
		done <- result{img, err}
	}()

	select {
	case r := <-done:
		switch {
		case r.err == nil:
			return r.img, nil
		case stderrors.Is(r.err, context.DeadlineExceeded):
			return nil, t.timeoutError(r.err)
		case stderrors.Is(r.err, context.Canceled):
			return nil, errors.Wrap(errors.ErrCodeCanceled, r.err, "render canceled")
		}
		return nil, r.err
	case <-ctx.Done():
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, t.timeoutError(ctx.Err())
		}
		return nil, errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "render canceled")
	}
}

func (t *timeoutBackend) timeoutError(cause error) error {
	return errors.Wrap(errors.ErrCodeRenderTimeout, cause, "render timed out after %s", t.timeout)
}
