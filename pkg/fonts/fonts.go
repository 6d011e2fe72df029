// Package fonts provides the typefaces used by the raster renderer.
//
// The Go font family is compiled into the binary (golang.org/x/image/font/gofont),
// so rendering never depends on fonts installed on the host. Parsed fonts are
// cached; faces are cheap to create per size and DPI.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Style selects a font variant.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
)

// String returns the variant name.
func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	}
	return "regular"
}

var sources = map[Style][]byte{
	Regular: goregular.TTF,
	Bold:    gobold.TTF,
	Italic:  goitalic.TTF,
}

var (
	mu     sync.Mutex
	parsed = map[Style]*truetype.Font{}
)

// Font returns the parsed font for style. The result is cached after first use.
func Font(style Style) (*truetype.Font, error) {
	mu.Lock()
	defer mu.Unlock()
	if f, ok := parsed[style]; ok {
		return f, nil
	}
	src, ok := sources[style]
	if !ok {
		return nil, fmt.Errorf("unknown font style %d", style)
	}
	f, err := truetype.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s font: %w", style, err)
	}
	parsed[style] = f
	return f, nil
}

// Face returns a face of the given point size at dpi.
func Face(style Style, points float64, dpi int) (font.Face, error) {
	f, err := Font(style)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    points,
		DPI:     float64(dpi),
		Hinting: font.HintingFull,
	}), nil
}

// FontFamily is the family name reported in document metadata.
const FontFamily = "Go"
