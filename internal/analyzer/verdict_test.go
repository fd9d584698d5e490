package analyzer

import (
	"image/color"
	"testing"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

func TestFinalVerdict(t *testing.T) {
	tests := []struct {
		brand, wrong bool
		want         Verdict
	}{
		{true, false, VerdictSuccess},
		{true, true, VerdictPartial},
		{false, true, VerdictFailure},
		{false, false, VerdictUnclear},
	}

	for _, tt := range tests {
		if got := FinalVerdict(tt.brand, tt.wrong); got != tt.want {
			t.Errorf("FinalVerdict(%v, %v) = %s, want %s", tt.brand, tt.wrong, got, tt.want)
		}
	}
}

func TestVerify(t *testing.T) {
	brand, wrong := palette.BrandDefaults(), palette.WrongDefaults()
	gold, navy := rgba(brand[0].RGB), rgba(brand[1].RGB)
	orange, pink := rgba(wrong[0].RGB), rgba(wrong[1].RGB)

	tests := []struct {
		name          string
		bands         []band
		wantVerdict   Verdict
		wantShare     float64
		wantBrandUsed bool
	}{
		{"brand only", []band{{gold, 800}}, VerdictSuccess, 50, true},
		{"brand and wrong", []band{{navy, 400}, {pink, 400}}, VerdictPartial, 25, true},
		{"wrong only", []band{{orange, 1000}}, VerdictFailure, 0, false},
		{"blank", nil, VerdictUnclear, 0, false},
		{"just above found floor", []band{{gold, 101}}, VerdictSuccess, 101.0 * 100 / 1600, true},
		{"trace of brand", []band{{gold, 60}}, VerdictUnclear, 3.75, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createBandedImage(40, 40, tt.bands...)
			v, err := Verify(img, brand, wrong, matcher.DefaultOptions())
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if v.Verdict != tt.wantVerdict {
				t.Errorf("Expected verdict %s, got %s", tt.wantVerdict, v.Verdict)
			}
			if v.BrandShare != tt.wantShare {
				t.Errorf("Expected brand share %v, got %v", tt.wantShare, v.BrandShare)
			}
			if v.BrandColorsUsed != tt.wantBrandUsed {
				t.Errorf("Expected BrandColorsUsed=%v, got %v", tt.wantBrandUsed, v.BrandColorsUsed)
			}
		})
	}
}

func TestVerify_FoundLists(t *testing.T) {
	brand, wrong := palette.BrandDefaults(), palette.WrongDefaults()
	img := createBandedImage(40, 40,
		band{rgba(brand[1].RGB), 500},
		band{rgba(brand[3].RGB), 50},
		band{rgba(wrong[1].RGB), 200},
	)

	v, err := Verify(img, brand, wrong, matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	foundBrand := v.FoundBrand()
	if len(foundBrand) != 1 || foundBrand[0].Name != "Navy Blue" {
		t.Errorf("Expected only Navy Blue found, got %+v", foundBrand)
	}
	foundWrong := v.FoundWrong()
	if len(foundWrong) != 1 || foundWrong[0].Name != "Pink (WRONG)" {
		t.Errorf("Expected only Pink found, got %+v", foundWrong)
	}
}

func TestVerify_NoWrongPalette(t *testing.T) {
	brand := palette.BrandDefaults()
	img := createTestImage(20, 20, rgba(brand[2].RGB))

	v, err := Verify(img, brand, nil, matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if v.Wrong != nil || v.WrongFound {
		t.Errorf("Expected no wrong result, got %+v", v.Wrong)
	}
	if len(v.FoundWrong()) != 0 {
		t.Error("Expected no wrong colors")
	}
	if v.Verdict != VerdictSuccess {
		t.Errorf("Expected success, got %s", v.Verdict)
	}
}

func TestVerify_EmptyBrandPalette(t *testing.T) {
	img := createTestImage(10, 10, color.RGBA{10, 200, 10, 255})
	_, err := Verify(img, palette.Palette{}, palette.WrongDefaults(), matcher.DefaultOptions())
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidPalette) {
		t.Errorf("Expected invalid palette error, got %v", err)
	}
}
