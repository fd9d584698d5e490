package analyzer

import (
	"fmt"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
)

const (
	// BrandShareFloor is the brand-matched percentage above which brand
	// colors count as used.
	BrandShareFloor = 5.0

	// BlankWhiteShare is the white-sample percentage at or above which a
	// screenshot is considered blank.
	BlankWhiteShare = 90.0
)

// ExtractOptions configures dominant palette extraction
type ExtractOptions struct {
	// Count is the number of distinct colors considered for clustering
	Count int `json:"count"`
	// ClusterThreshold is the RGB distance under which colors merge
	ClusterThreshold float64 `json:"cluster_threshold"`
	// Keep is the number of clusters reported
	Keep int `json:"keep"`
}

// DefaultExtractOptions returns the default extraction options
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		Count:            15,
		ClusterThreshold: 40,
		Keep:             8,
	}
}

// WithCount sets how many distinct colors are clustered
func (o ExtractOptions) WithCount(n int) ExtractOptions {
	o.Count = n
	return o
}

// WithClusterThreshold sets the merge distance
func (o ExtractOptions) WithClusterThreshold(d float64) ExtractOptions {
	o.ClusterThreshold = d
	return o
}

// WithKeep sets how many clusters are reported
func (o ExtractOptions) WithKeep(n int) ExtractOptions {
	o.Keep = n
	return o
}

// Validate checks the options
func (o ExtractOptions) Validate() error {
	if o.Count < 1 || o.Keep < 1 {
		return apperrors.NewValidationError(
			fmt.Sprintf("count and keep must be >= 1 (got count=%d, keep=%d)", o.Count, o.Keep), nil)
	}
	if o.ClusterThreshold < 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("cluster threshold must be >= 0 (got %g)", o.ClusterThreshold), nil)
	}
	return nil
}
