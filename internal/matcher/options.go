package matcher

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
)

const (
	// DefaultTolerance is the Euclidean RGB distance below which a pixel
	// matches a palette entry.
	DefaultTolerance = 30.0
	// DefaultNeutralThreshold is the channel spread below which a pixel is
	// treated as gray.
	DefaultNeutralThreshold = 20.0
	// DefaultTopN is the number of unexpected colors reported.
	DefaultTopN = 10

	// FoundFloor is the absolute pixel count a palette entry must exceed
	// to be reported as found, regardless of image size.
	FoundFloor = 100

	nearWhiteFloor = 240
	nearBlackCeil  = 15
)

// Options tunes pixel classification
type Options struct {
	Tolerance        float64 `json:"tolerance"`
	NeutralThreshold float64 `json:"neutral_threshold"`
	TopN             int     `json:"top_n"`
}

// DefaultOptions returns the default classification options
func DefaultOptions() Options {
	return Options{
		Tolerance:        DefaultTolerance,
		NeutralThreshold: DefaultNeutralThreshold,
		TopN:             DefaultTopN,
	}
}

// WithTolerance sets the match distance
func (o Options) WithTolerance(tolerance float64) Options {
	o.Tolerance = tolerance
	return o
}

// WithNeutralThreshold sets the gray channel-spread threshold
func (o Options) WithNeutralThreshold(threshold float64) Options {
	o.NeutralThreshold = threshold
	return o
}

// WithTopN sets how many unexpected colors are reported
func (o Options) WithTopN(n int) Options {
	o.TopN = n
	return o
}

// Validate checks the options are usable
func (o Options) Validate() error {
	if !isFinite(o.Tolerance) || o.Tolerance < 0 {
		return apperrors.NewValidationError(fmt.Sprintf("tolerance must be >= 0 (got %g)", o.Tolerance), nil)
	}
	if !isFinite(o.NeutralThreshold) || o.NeutralThreshold < 0 {
		return apperrors.NewValidationError(fmt.Sprintf("neutral threshold must be >= 0 (got %g)", o.NeutralThreshold), nil)
	}
	if o.TopN < 1 {
		return apperrors.NewValidationError(fmt.Sprintf("top N must be >= 1 (got %d)", o.TopN), nil)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
