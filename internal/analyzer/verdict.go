package analyzer

import (
	"image"

	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

// Verify classifies img against the brand palette and the wrong palette and
// derives the verdict. The two classifications are independent: a pixel can
// count toward a brand entry and a wrong entry at the same time.
func Verify(img image.Image, brand, wrong palette.Palette, opts matcher.Options) (*Verification, error) {
	brandResult, err := matcher.Classify(img, brand, opts)
	if err != nil {
		return nil, err
	}

	var wrongResult *matcher.Result
	if len(wrong) > 0 {
		if wrongResult, err = matcher.Classify(img, wrong, opts); err != nil {
			return nil, err
		}
	}

	return NewVerification(brandResult, wrongResult), nil
}

// NewVerification builds a verification from already computed results.
// wrong may be nil when no wrong palette is configured.
func NewVerification(brand, wrong *matcher.Result) *Verification {
	v := &Verification{
		Brand:      brand,
		Wrong:      wrong,
		BrandShare: brand.MatchedShare(),
		BrandFound: brand.AnyFound(),
	}
	v.BrandColorsUsed = v.BrandShare > BrandShareFloor
	if wrong != nil {
		v.WrongFound = wrong.AnyFound()
	}
	v.Verdict = FinalVerdict(v.BrandFound, v.WrongFound)
	return v
}

// FinalVerdict combines the per-palette outcomes
func FinalVerdict(brandFound, wrongFound bool) Verdict {
	switch {
	case brandFound && !wrongFound:
		return VerdictSuccess
	case brandFound && wrongFound:
		return VerdictPartial
	case wrongFound:
		return VerdictFailure
	default:
		return VerdictUnclear
	}
}
