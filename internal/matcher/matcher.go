// Package matcher reports how much of an image is covered by each color of
// a reference palette.
//
// Every pixel is visited once. Near-white, near-black and low-spread (gray)
// pixels are excluded; each remaining pixel is assigned to the first palette
// entry, in palette order, whose Euclidean RGB distance is strictly below the
// tolerance. First match wins even when a later entry is closer. Pixels that
// match nothing are counted as unexpected and tallied by exact RGB value.
package matcher

import (
	"image"
	"image/color"
	"math"
	"sort"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

// pixelClass is the outcome of classifying a single pixel
type pixelClass int

const (
	classMatched pixelClass = iota
	classWhite
	classBlack
	classNeutral
	classUnexpected
)

// Classify classifies every pixel of img against pal.
func Classify(img image.Image, pal palette.Palette, opts Options) (*Result, error) {
	if img == nil {
		return nil, apperrors.NewImageDecodeError("no image to classify", nil)
	}
	if err := pal.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewImageDecodeError("image has no pixels", nil)
	}

	c := newClassifier(pal, opts)
	counts := make([]int, len(pal))
	unexpected := make(map[uint32]int)
	result := &Result{
		Width:       width,
		Height:      height,
		TotalPixels: width * height,
		Options:     opts,
	}

	ForEachPixel(img, func(p palette.RGB) {
		class, idx := c.classify(p)
		switch class {
		case classMatched:
			counts[idx]++
			result.MatchedPixels++
		case classWhite:
			result.Excluded.White++
		case classBlack:
			result.Excluded.Black++
		case classNeutral:
			result.Excluded.Neutral++
		case classUnexpected:
			unexpected[p.Pack()]++
			result.UnexpectedPixels++
		}
	})

	result.Matches = make([]ColorMatch, len(pal))
	for i, ref := range pal {
		result.Matches[i] = ColorMatch{
			Name:       ref.Name,
			Hex:        ref.Hex(),
			RGB:        ref.RGB,
			Count:      counts[i],
			Percentage: percentOf(counts[i], result.TotalPixels),
			Found:      counts[i] > FoundFloor,
		}
	}
	result.Unexpected = topColors(unexpected, opts.TopN, result.TotalPixels)

	return result, nil
}

// classifier holds the per-call state derived from the palette and options
type classifier struct {
	palette     palette.Palette
	toleranceSq float64
	neutral     float64
}

func newClassifier(pal palette.Palette, opts Options) *classifier {
	return &classifier{
		palette:     pal,
		toleranceSq: opts.Tolerance * opts.Tolerance,
		neutral:     opts.NeutralThreshold,
	}
}

// classify returns the class of p and, for matches, the palette index.
func (c *classifier) classify(p palette.RGB) (pixelClass, int) {
	switch {
	case p.R > nearWhiteFloor && p.G > nearWhiteFloor && p.B > nearWhiteFloor:
		return classWhite, -1
	case p.R < nearBlackCeil && p.G < nearBlackCeil && p.B < nearBlackCeil:
		return classBlack, -1
	case float64(spread(p)) < c.neutral:
		return classNeutral, -1
	}

	for i, ref := range c.palette {
		// Comparing squares keeps the strict "< tolerance" boundary exact.
		if float64(distanceSq(p, ref.RGB)) < c.toleranceSq {
			return classMatched, i
		}
	}
	return classUnexpected, -1
}

// IsExcluded reports whether p is skipped as near-white, near-black or
// neutral under the given neutral threshold.
func IsExcluded(p palette.RGB, neutralThreshold float64) bool {
	c := classifier{neutral: neutralThreshold}
	class, _ := c.classify(p)
	return class != classUnexpected
}

// Distance returns the Euclidean distance between two colors.
func Distance(a, b palette.RGB) float64 {
	return math.Sqrt(float64(distanceSq(a, b)))
}

func distanceSq(a, b palette.RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

func spread(p palette.RGB) int {
	hi, lo := p.R, p.R
	for _, v := range [2]uint8{p.G, p.B} {
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return int(hi) - int(lo)
}

// topColors ranks the frequency table by count, breaking ties by the packed
// RGB value so the order is stable across runs.
func topColors(freq map[uint32]int, n, total int) []ColorCount {
	keys := make([]uint32, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := freq[keys[i]], freq[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]ColorCount, len(keys))
	for i, k := range keys {
		rgb := palette.Unpack(k)
		out[i] = ColorCount{
			Hex:        rgb.Hex(),
			RGB:        rgb,
			Count:      freq[k],
			Percentage: percentOf(freq[k], total),
		}
	}
	return out
}

// ForEachPixel visits every pixel in row-major order with alpha dropped.
// Straight (non-premultiplied) channel values are used, the same as
// flattening the image to RGB.
func ForEachPixel(img image.Image, fn func(palette.RGB)) {
	bounds := img.Bounds()

	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				fn(palette.RGB{R: src.Pix[off], G: src.Pix[off+1], B: src.Pix[off+2]})
				off += 4
			}
		}
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if src.Pix[off+3] == 0xff {
					fn(palette.RGB{R: src.Pix[off], G: src.Pix[off+1], B: src.Pix[off+2]})
				} else {
					fn(toRGB(src.RGBAAt(x, y)))
				}
				off += 4
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				fn(toRGB(img.At(x, y)))
			}
		}
	}
}

// ToRGB converts any color to straight 8-bit RGB, dropping alpha.
func ToRGB(c color.Color) palette.RGB {
	return toRGB(c)
}

func toRGB(c color.Color) palette.RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return palette.RGB{R: n.R, G: n.G, B: n.B}
}
