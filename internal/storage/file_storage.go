package storage

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
)

const fileScheme = "file://"

// FileImageFetcher loads images from the local filesystem. Locations may be
// plain paths or file:// URLs.
type FileImageFetcher struct{}

// NewFileImageFetcher creates a local file fetcher
func NewFileImageFetcher() ImageFetcher {
	return &FileImageFetcher{}
}

func (f *FileImageFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := location
	if len(path) >= len(fileScheme) && strings.EqualFold(path[:len(fileScheme)], fileScheme) {
		path = path[len(fileScheme):]
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewImageDecodeError(fmt.Sprintf("cannot open image %q", path), err)
	}
	defer file.Close()

	img, _, err := DecodeImage(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// LoadImage is a convenience wrapper for callers that only deal with files.
func LoadImage(path string) (image.Image, error) {
	return NewFileImageFetcher().FetchImage(context.Background(), path)
}
