package analyzer

import (
	"image"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"

	"gonum.org/v1/gonum/stat"
)

const (
	contentGridDivisions = 100
	contentWhiteFloor    = 240
)

// InspectContent samples img on a grid of roughly 100x100 points and reports
// whether it is mostly white. A screenshot taken before the app renders is
// typically a white page.
func InspectContent(img image.Image) (*ContentReport, error) {
	if img == nil {
		return nil, apperrors.NewImageDecodeError("no image to inspect", nil)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewImageDecodeError("image has no pixels", nil)
	}

	stepX := max(1, width/contentGridDivisions)
	stepY := max(1, height/contentGridDivisions)

	luminance := make([]float64, 0, (width/stepX+1)*(height/stepY+1))
	white := 0
	for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
		for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
			p := matcher.ToRGB(img.At(x, y))
			if p.R > contentWhiteFloor && p.G > contentWhiteFloor && p.B > contentWhiteFloor {
				white++
			}
			luminance = append(luminance, 0.299*float64(p.R)+0.587*float64(p.G)+0.114*float64(p.B))
		}
	}

	report := &ContentReport{
		Width:         width,
		Height:        height,
		SampledPixels: len(luminance),
		WhitePixels:   white,
		WhiteShare:    float64(white) * 100 / float64(len(luminance)),
	}
	report.HasContent = report.WhiteShare < BlankWhiteShare
	if len(luminance) > 1 {
		report.LuminanceMean, report.LuminanceStdev = stat.MeanStdDev(luminance, nil)
	} else {
		report.LuminanceMean = luminance[0]
	}
	return report, nil
}
