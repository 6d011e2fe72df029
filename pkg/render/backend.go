package render

import (
	"context"
	"image"
	"strings"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
)

// Backend draws page images.
type Backend interface {
	// RenderPage draws one discrete page at the geometry's pixel size.
	RenderPage(ctx context.Context, doc *document.Document, page paginate.PageDescriptor, geom paginate.Geometry) (image.Image, error)

	// RenderFlow draws the whole document as one image of page width and
	// arbitrary height.
	RenderFlow(ctx context.Context, doc *document.Document, geom paginate.Geometry) (image.Image, error)
}

// OverflowPolicy controls fixed pages whose content is taller than the page.
type OverflowPolicy string

const (
	// OverflowError fails the page with a PAGE_OVERFLOW validation error.
	OverflowError OverflowPolicy = "error"

	// OverflowClip cuts the content at the bottom margin and logs a warning.
	OverflowClip OverflowPolicy = "clip"
)

// DefaultOverflow is used when no policy is configured.
const DefaultOverflow = OverflowError

// ParseOverflow parses a policy name; the empty string yields the default.
func ParseOverflow(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultOverflow, nil
	case OverflowError, OverflowClip:
		return p, nil
	}
	return "", errors.Validation("unknown overflow policy %q (want error or clip)", s)
}

// MinimumFraction is the smallest share of the expected size a page image
// may have before it is treated as undersized.
const MinimumFraction = 0.5

// CheckImage rejects a nil, empty or undersized image. wantW and wantH
// are the expected pixel size; a zero expectation skips that dimension.
func CheckImage(img image.Image, wantW, wantH int) error {
	if img == nil {
		return errors.New(errors.ErrCodeEmptyImage, "renderer returned no image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.New(errors.ErrCodeEmptyImage, "renderer returned an empty %dx%d image", b.Dx(), b.Dy())
	}
	if float64(b.Dx()) < MinimumFraction*float64(wantW) || float64(b.Dy()) < MinimumFraction*float64(wantH) {
		return errors.New(errors.ErrCodeEmptyImage,
			"renderer returned an undersized %dx%d image (expected %dx%d)", b.Dx(), b.Dy(), wantW, wantH)
	}
	return nil
}
