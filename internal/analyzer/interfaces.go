package analyzer

import (
	"image"

	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

// BrandAnalyzer defines the main interface for screenshot color analysis
type BrandAnalyzer interface {
	// Classify runs the color matcher against a single palette
	Classify(img image.Image, pal palette.Palette, opts matcher.Options) (*matcher.Result, error)

	// Verify checks img against the brand and wrong palettes
	Verify(img image.Image, brand, wrong palette.Palette, opts matcher.Options) (*Verification, error)

	Extract(img image.Image, opts ExtractOptions) (*Extraction, error)
	InspectContent(img image.Image) (*ContentReport, error)

	// Stats exposes the worker pool counters
	Stats() PoolStats

	// Lifecycle management
	Close() error
}
