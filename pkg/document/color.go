package document

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/suratkita/suratkita/pkg/errors"
)

// Color is either "#RRGGBB" or a name from [Palette]. The empty Color means
// "renderer default".
type Color string

// Palette maps the accepted color names to their hex value.
var Palette = map[string]string{
	"black":  "#000000",
	"white":  "#FFFFFF",
	"navy":   "#1F2A5A",
	"maroon": "#7A1F1F",
	"green":  "#1E6B3A",
	"gray":   "#6B6B6B",
	"gold":   "#B8902F",
	"blue":   "#1F4E99",
	"red":    "#B22222",
}

// PaletteNames returns the palette names sorted alphabetically.
func PaletteNames() []string {
	names := make([]string, 0, len(Palette))
	for n := range Palette {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseColor accepts a hex color or palette name. Palette names are
// canonicalized to lower case.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if errors.IsHexColor(s) {
		return Color(strings.ToUpper(s)), nil
	}
	if _, ok := Palette[strings.ToLower(s)]; ok {
		return Color(strings.ToLower(s)), nil
	}
	return "", errors.New(errors.ErrCodeInvalidColor,
		"unsupported color %q: use #RRGGBB or one of %s", s, strings.Join(PaletteNames(), ", "))
}

// Hex returns the #RRGGBB form, or "" for the default color.
func (c Color) Hex() string {
	if v, ok := Palette[string(c)]; ok {
		return v
	}
	return string(c)
}

// IsZero reports whether c is the default color.
func (c Color) IsZero() bool { return c == "" }

// UnmarshalJSON rejects colors outside the closed representation.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidColor, err, "color must be a string")
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
