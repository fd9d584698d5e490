package analyzer

import (
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

// Verdict summarises a brand verification
type Verdict string

const (
	// VerdictSuccess means brand colors are present and no wrong colors are
	VerdictSuccess Verdict = "success"
	// VerdictPartial means both brand and wrong colors are present
	VerdictPartial Verdict = "partial"
	// VerdictFailure means only wrong colors are present
	VerdictFailure Verdict = "failure"
	// VerdictUnclear means neither palette was found
	VerdictUnclear Verdict = "unclear"
)

// Verification is the outcome of checking one screenshot against the brand
// and wrong palettes.
type Verification struct {
	Brand           *matcher.Result `json:"brand"`
	Wrong           *matcher.Result `json:"wrong"`
	BrandShare      float64         `json:"brand_share"`
	BrandColorsUsed bool            `json:"brand_colors_used"`
	BrandFound      bool            `json:"brand_found"`
	WrongFound      bool            `json:"wrong_found"`
	Verdict         Verdict         `json:"verdict"`
}

// FoundBrand returns the brand entries that passed the found floor
func (v *Verification) FoundBrand() []matcher.ColorMatch {
	return found(v.Brand)
}

// FoundWrong returns the wrong entries that passed the found floor
func (v *Verification) FoundWrong() []matcher.ColorMatch {
	return found(v.Wrong)
}

func found(r *matcher.Result) []matcher.ColorMatch {
	if r == nil {
		return nil
	}
	var out []matcher.ColorMatch
	for _, m := range r.Matches {
		if m.Found {
			out = append(out, m)
		}
	}
	return out
}

// ExtractedColor is one dominant color of a screenshot
type ExtractedColor struct {
	Hex        string      `json:"hex"`
	RGB        palette.RGB `json:"rgb"`
	Name       string      `json:"name"`
	Count      int         `json:"pixel_count"`
	Percentage float64     `json:"percentage"`

	// ClusterPixels counts every color merged into this one
	ClusterPixels int `json:"cluster_pixels"`
	Members       int `json:"members"`
}

// Extraction is the dominant palette of a screenshot
type Extraction struct {
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	TotalPixels int              `json:"total_pixels"`
	Colors      []ExtractedColor `json:"colors"`
}

// FlutterConstants renders the extracted colors as Dart constants
func (e *Extraction) FlutterConstants() []string {
	out := make([]string, len(e.Colors))
	for i, c := range e.Colors {
		out[i] = palette.FlutterConstant(i+1, c.RGB)
	}
	return out
}

// ContentReport tells whether a screenshot shows anything besides a blank
// background.
type ContentReport struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	SampledPixels  int     `json:"sampled_pixels"`
	WhitePixels    int     `json:"white_pixels"`
	WhiteShare     float64 `json:"white_share"`
	HasContent     bool    `json:"has_content"`
	LuminanceMean  float64 `json:"luminance_mean"`
	LuminanceStdev float64 `json:"luminance_stdev"`
}
