package repository

import (
	"context"
	"image"
	"testing"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"
)

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	f.calls++
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func TestImageRepository_ValidatesBeforeFetching(t *testing.T) {
	fetcher := &countingFetcher{}
	repo := NewImageRepository(fetcher, validation.NewLocationValidator())

	if _, err := repo.FetchImage(context.Background(), "/etc/passwd"); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for local path, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch for rejected location, got %d", fetcher.calls)
	}

	img, err := repo.FetchImage(context.Background(), "https://example.com/a.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if img == nil || fetcher.calls != 1 {
		t.Errorf("Expected one successful fetch, got calls=%d", fetcher.calls)
	}
}
