package models

import (
	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

// MaxBatchLocations caps the screenshots accepted by one batch request
const MaxBatchLocations = 50

// MatchSettings overrides the configured classification options. Nil fields
// keep the configured value.
type MatchSettings struct {
	Tolerance        *float64 `json:"tolerance,omitempty"`
	NeutralThreshold *float64 `json:"neutral_threshold,omitempty"`
	TopN             *int     `json:"top_n,omitempty"`
}

// Apply returns base with the overrides applied
func (s *MatchSettings) Apply(base matcher.Options) matcher.Options {
	if s == nil {
		return base
	}
	if s.Tolerance != nil {
		base = base.WithTolerance(*s.Tolerance)
	}
	if s.NeutralThreshold != nil {
		base = base.WithNeutralThreshold(*s.NeutralThreshold)
	}
	if s.TopN != nil {
		base = base.WithTopN(*s.TopN)
	}
	return base
}

// ExtractSettings overrides the dominant color extraction defaults
type ExtractSettings struct {
	Count            *int     `json:"count,omitempty"`
	ClusterThreshold *float64 `json:"cluster_threshold,omitempty"`
	Keep             *int     `json:"keep,omitempty"`
}

// Apply returns base with the overrides applied
func (s *ExtractSettings) Apply(base analyzer.ExtractOptions) analyzer.ExtractOptions {
	if s == nil {
		return base
	}
	if s.Count != nil {
		base = base.WithCount(*s.Count)
	}
	if s.ClusterThreshold != nil {
		base = base.WithClusterThreshold(*s.ClusterThreshold)
	}
	if s.Keep != nil {
		base = base.WithKeep(*s.Keep)
	}
	return base
}

// ClassifyRequest classifies one screenshot against one palette. An empty
// palette selects the configured brand palette.
type ClassifyRequest struct {
	Location string          `json:"location" binding:"required"`
	Palette  []palette.Entry `json:"palette,omitempty" binding:"omitempty,dive"`
	Settings *MatchSettings  `json:"settings,omitempty"`
}

// VerifyRequest checks one screenshot against the brand and wrong palettes.
// Empty palettes select the configured ones; SkipWrong disables the wrong
// color check.
type VerifyRequest struct {
	Location  string          `json:"location" binding:"required"`
	Brand     []palette.Entry `json:"brand,omitempty" binding:"omitempty,dive"`
	Wrong     []palette.Entry `json:"wrong,omitempty" binding:"omitempty,dive"`
	SkipWrong bool            `json:"skip_wrong,omitempty"`
	Settings  *MatchSettings  `json:"settings,omitempty"`
}

// BatchVerifyRequest verifies several screenshots with the same palettes
type BatchVerifyRequest struct {
	Locations []string        `json:"locations" binding:"required,min=1,max=50,dive,required"`
	Brand     []palette.Entry `json:"brand,omitempty" binding:"omitempty,dive"`
	Wrong     []palette.Entry `json:"wrong,omitempty" binding:"omitempty,dive"`
	SkipWrong bool            `json:"skip_wrong,omitempty"`
	Settings  *MatchSettings  `json:"settings,omitempty"`
}

// Item returns the single verification request for one batch location
func (r *BatchVerifyRequest) Item(location string) VerifyRequest {
	return VerifyRequest{
		Location:  location,
		Brand:     r.Brand,
		Wrong:     r.Wrong,
		SkipWrong: r.SkipWrong,
		Settings:  r.Settings,
	}
}

// ExtractRequest lists the dominant colors of a screenshot
type ExtractRequest struct {
	Location string           `json:"location" binding:"required"`
	Settings *ExtractSettings `json:"settings,omitempty"`
}

// InspectRequest checks that a screenshot shows rendered content
type InspectRequest struct {
	Location string `json:"location" binding:"required"`
}

// TextRequest compares the text in a screenshot with the expected copy
type TextRequest struct {
	Location      string   `json:"location" binding:"required"`
	ExpectedText  string   `json:"expected_text,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	MinSimilarity float64  `json:"min_similarity,omitempty" binding:"omitempty,gt=0,lte=1"`
}

// ErrorResponse represents an error response. Type and Details are set
// for application errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
