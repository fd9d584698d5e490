package repository

import (
	"context"
	"image"

	"github.com/anime-shed/brand-inspector-go/internal/storage"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"
)

// locationImageRepository implements ImageRepository over any fetcher
type locationImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.LocationValidator
}

// NewImageRepository creates an image repository that validates locations
// with validator before handing them to fetcher
func NewImageRepository(fetcher storage.ImageFetcher, validator *validation.LocationValidator) ImageRepository {
	return &locationImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage retrieves an image from a location
func (r *locationImageRepository) FetchImage(ctx context.Context, location string) (image.Image, error) {
	if err := r.ValidateLocation(location); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, location)
}

// ValidateLocation validates if the provided location is acceptable
func (r *locationImageRepository) ValidateLocation(location string) error {
	return r.validator.ValidateLocation(location)
}
