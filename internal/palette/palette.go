// Package palette holds the ordered reference colors that screenshots are
// checked against, and the helpers to parse and describe them.
package palette

import (
	"fmt"
	"strings"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel color with no alpha.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer using the tuple form, e.g. (254, 189, 89).
func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Pack returns the color as a single 24-bit integer.
func (c RGB) Pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of Pack.
func Unpack(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Color is a named reference color.
type Color struct {
	Name string `json:"name"`
	RGB  RGB    `json:"rgb"`
}

// Hex renders the reference color as #rrggbb.
func (c Color) Hex() string {
	return c.RGB.Hex()
}

// Palette is an ordered list of reference colors. Order matters: the
// matcher assigns a pixel to the first entry within tolerance.
type Palette []Color

// Entry is the wire form of a palette color.
type Entry struct {
	Name string `json:"name" binding:"required"`
	Hex  string `json:"hex" binding:"required"`
}

// Names returns the color names in palette order.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return names
}

// Validate reports an InvalidPaletteError for an empty palette.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return apperrors.NewInvalidPaletteError("palette must contain at least one color", nil)
	}
	return nil
}

// String renders the palette in the same Name=#hex form Parse accepts.
func (p Palette) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.Name + "=" + c.Hex()
	}
	return strings.Join(parts, ",")
}

// ParseHex parses #rgb or #rrggbb, with or without the leading '#'.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return RGB{}, apperrors.NewInvalidPaletteError(fmt.Sprintf("malformed hex color %q", s), nil)
	}
	for _, ch := range s[1:] {
		if !isHexDigit(ch) {
			return RGB{}, apperrors.NewInvalidPaletteError(fmt.Sprintf("malformed hex color %q", s), nil)
		}
	}

	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return RGB{}, apperrors.NewInvalidPaletteError(fmt.Sprintf("malformed hex color %q", s), err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func isHexDigit(ch rune) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

// Parse reads an ordered "Name=#hex,Name=#hex" list.
func Parse(spec string) (Palette, error) {
	var p Palette
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, hex, ok := strings.Cut(item, "=")
		if !ok {
			return nil, apperrors.NewInvalidPaletteError(fmt.Sprintf("palette entry %q is not Name=#hex", item), nil)
		}
		c, err := newColor(name, hex)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromEntries builds a palette from wire entries, keeping their order.
func FromEntries(entries []Entry) (Palette, error) {
	p := make(Palette, 0, len(entries))
	for _, e := range entries {
		c, err := newColor(e.Name, e.Hex)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Entries converts the palette back to its wire form.
func (p Palette) Entries() []Entry {
	entries := make([]Entry, len(p))
	for i, c := range p {
		entries[i] = Entry{Name: c.Name, Hex: c.Hex()}
	}
	return entries
}

func newColor(name, hex string) (Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Color{}, apperrors.NewInvalidPaletteError(fmt.Sprintf("color %q has no name", hex), nil)
	}
	rgb, err := ParseHex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color{Name: name, RGB: rgb}, nil
}

// MustParse is Parse for package-level defaults; it panics on error.
func MustParse(spec string) Palette {
	p, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return p
}

const (
	// DefaultBrandSpec is the ChekMate brand palette.
	DefaultBrandSpec = "Primary Gold=#FEBD59,Navy Blue=#2D497B,Darker Gold=#DF912F,Light Golden=#FDD698"
	// DefaultWrongSpec lists colors an earlier theme used by mistake.
	DefaultWrongSpec = "Orange (WRONG)=#FF6B35,Pink (WRONG)=#FF8FA3"
)

// BrandDefaults returns a fresh copy of the default brand palette.
func BrandDefaults() Palette {
	return MustParse(DefaultBrandSpec)
}

// WrongDefaults returns a fresh copy of the default wrong-color palette.
func WrongDefaults() Palette {
	return MustParse(DefaultWrongSpec)
}
