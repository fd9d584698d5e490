package storage

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"

	"github.com/kbinani/screenshot"
)

const ScreenScheme = "screen://"

// ScreenImageFetcher captures a display of the machine running the checker,
// e.g. a simulator window on a developer workstation. screen://0 is the
// primary display.
type ScreenImageFetcher struct {
	numDisplays func() int
	capture     func(display int) (image.Image, error)
}

func NewScreenImageFetcher() ImageFetcher {
	return &ScreenImageFetcher{
		numDisplays: screenshot.NumActiveDisplays,
		capture: func(display int) (image.Image, error) {
			return screenshot.CaptureRect(screenshot.GetDisplayBounds(display))
		},
	}
}

func (s *ScreenImageFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	display, err := ParseDisplay(location)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := s.numDisplays()
	if n == 0 {
		return nil, apperrors.NewProcessingError("no active displays to capture", nil)
	}
	if display >= n {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("display %d not available, %d active", display, n), nil)
	}

	img, err := s.capture(display)
	if err != nil {
		return nil, apperrors.NewProcessingError("screen capture failed", err)
	}
	return img, nil
}

// ParseDisplay returns the display index of a screen:// location. An empty
// index means display 0.
func ParseDisplay(location string) (int, error) {
	if len(location) < len(ScreenScheme) || !strings.EqualFold(location[:len(ScreenScheme)], ScreenScheme) {
		return 0, apperrors.NewValidationError("not a screen location: "+location, nil)
	}
	rest := location[len(ScreenScheme):]
	if rest == "" {
		return 0, nil
	}
	display, err := strconv.Atoi(rest)
	if err != nil || display < 0 {
		return 0, apperrors.NewValidationError("invalid display index: "+rest, err)
	}
	return display, nil
}
