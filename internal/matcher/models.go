package matcher

import "github.com/anime-shed/brand-inspector-go/internal/palette"

// ColorMatch is the coverage of one palette entry
type ColorMatch struct {
	Name       string      `json:"name"`
	Hex        string      `json:"expected_hex"`
	RGB        palette.RGB `json:"rgb"`
	Count      int         `json:"pixel_count"`
	Percentage float64     `json:"percentage"`
	Found      bool        `json:"found"`
}

// ColorCount is one row of the unexpected-color frequency table
type ColorCount struct {
	Hex        string      `json:"hex"`
	RGB        palette.RGB `json:"rgb"`
	Count      int         `json:"pixel_count"`
	Percentage float64     `json:"percentage"`
}

// Exclusions breaks down the pixels skipped before matching
type Exclusions struct {
	White   int `json:"near_white"`
	Black   int `json:"near_black"`
	Neutral int `json:"neutral"`
}

// Total returns the number of excluded pixels
func (e Exclusions) Total() int {
	return e.White + e.Black + e.Neutral
}

// Result is the outcome of classifying one image against one palette
type Result struct {
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	TotalPixels      int          `json:"total_pixels"`
	Matches          []ColorMatch `json:"matches"`
	MatchedPixels    int          `json:"matched_pixels"`
	Excluded         Exclusions   `json:"excluded"`
	UnexpectedPixels int          `json:"unexpected_pixels"`
	Unexpected       []ColorCount `json:"unexpected"`
	Options          Options      `json:"options"`
}

// ColoredPixels returns the pixels that survived the white/black/neutral filter.
func (r *Result) ColoredPixels() int {
	return r.MatchedPixels + r.UnexpectedPixels
}

// MatchedShare is the percentage of the whole image assigned to any palette entry.
func (r *Result) MatchedShare() float64 {
	return percentOf(r.MatchedPixels, r.TotalPixels)
}

// UnexpectedShare is the percentage of the whole image that is unexpected.
func (r *Result) UnexpectedShare() float64 {
	return percentOf(r.UnexpectedPixels, r.TotalPixels)
}

// ColoredShare is the percentage of the whole image that is not excluded.
func (r *Result) ColoredShare() float64 {
	return percentOf(r.ColoredPixels(), r.TotalPixels)
}

// AnyFound reports whether at least one palette entry passed the found floor.
func (r *Result) AnyFound() bool {
	for _, m := range r.Matches {
		if m.Found {
			return true
		}
	}
	return false
}

// Match looks a palette entry up by name. With duplicate names the first wins.
func (r *Result) Match(name string) (ColorMatch, bool) {
	for _, m := range r.Matches {
		if m.Name == name {
			return m, true
		}
	}
	return ColorMatch{}, false
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
