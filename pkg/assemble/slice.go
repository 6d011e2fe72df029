package assemble

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/suratkita/suratkita/pkg/errors"
)

// BandCount returns how many bands of height band an image of height h
// splits into: ceil(h/band).
func BandCount(h, band int) int {
	if h <= 0 || band <= 0 {
		return 0
	}
	return (h + band - 1) / band
}

// Slice cuts img into consecutive horizontal bands of height band. Every
// band has the image's full width; the last band keeps its natural height
// h - band*(n-1) and is not padded.
func Slice(img image.Image, band int) ([]image.Image, error) {
	if img == nil {
		return nil, errors.New(errors.ErrCodeEmptyImage, "nothing to slice")
	}
	if band <= 0 {
		return nil, errors.Validation("band height must be positive, got %d", band)
	}
	b := img.Bounds()
	n := BandCount(b.Dy(), band)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeEmptyImage, "cannot slice an empty %dx%d image", b.Dx(), b.Dy())
	}

	bands := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		top := b.Min.Y + i*band
		bottom := min(top+band, b.Max.Y)
		bands = append(bands, imaging.Crop(img, image.Rect(b.Min.X, top, b.Max.X, bottom)))
	}
	return bands, nil
}
