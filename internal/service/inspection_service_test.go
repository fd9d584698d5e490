package service

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/observer"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
	"github.com/anime-shed/brand-inspector-go/internal/report"
	"github.com/anime-shed/brand-inspector-go/internal/repository"
	"github.com/anime-shed/brand-inspector-go/pkg/models"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var (
	gold   = color.RGBA{0xFE, 0xBD, 0x59, 0xff}
	navy   = color.RGBA{0x2D, 0x49, 0x7B, 0xff}
	orange = color.RGBA{0xFF, 0x6B, 0x35, 0xff}
	white  = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// mapFetcher serves images from memory
type mapFetcher map[string]image.Image

func (m mapFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	img, ok := m[location]
	if !ok {
		return nil, apperrors.NewImageDecodeError(fmt.Sprintf("no such file: %s", location), nil)
	}
	return img, nil
}

// fakeOCR returns canned text
type fakeOCR struct{ text string }

func (f fakeOCR) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f.text, nil
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// split paints the top half of the image a and the bottom half b
func split(w, h int, a, b color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := a
		if y >= h/2 {
			c = b
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type fixture struct {
	svc     InspectionService
	reports repository.ReportRepository
}

func newFixture(t *testing.T, ocr bool) *fixture {
	t.Helper()

	reports, err := repository.NewSQLiteReportRepository(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)

	images := mapFetcher{
		"shots/gold.png":   solid(50, 50, gold),
		"shots/orange.png": solid(50, 50, orange),
		"shots/mixed.png":  split(50, 50, gold, orange),
		"shots/blank.png":  solid(50, 50, white),
		"shots/two.png":    split(40, 40, navy, gold),
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(metrics)

	a := analyzer.NewBrandAnalyzer(2)

	deps := Dependencies{
		Images:   repository.NewImageRepository(images, validation.NewLocalLocationValidator()),
		Reports:  reports,
		Analyzer: a,
		Renderer: report.NewRenderer(language.English),
		Events:   events,
		Metrics:  metrics,
	}
	if ocr {
		deps.OCR = fakeOCR{text: "Welcome to ChekMate\nSign In"}
	}

	svc := NewInspectionService(deps, Defaults{
		Match:        matcher.DefaultOptions(),
		Brand:        palette.BrandDefaults(),
		Wrong:        palette.WrongDefaults(),
		Extract:      analyzer.DefaultExtractOptions(),
		BatchWorkers: 2,
	})

	t.Cleanup(func() {
		svc.Close()
		a.Close()
		reports.Close()
	})
	return &fixture{svc: svc, reports: reports}
}

func TestVerify_Verdicts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      models.VerifyRequest
		expected analyzer.Verdict
	}{
		{"Brand only", models.VerifyRequest{Location: "shots/gold.png"}, analyzer.VerdictSuccess},
		{"Wrong only", models.VerifyRequest{Location: "shots/orange.png"}, analyzer.VerdictFailure},
		{"Brand and wrong", models.VerifyRequest{Location: "shots/mixed.png"}, analyzer.VerdictPartial},
		{"Blank page", models.VerifyRequest{Location: "shots/blank.png"}, analyzer.VerdictUnclear},
		{"Wrong check skipped", models.VerifyRequest{Location: "shots/orange.png", SkipWrong: true}, analyzer.VerdictUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Verify(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.Verdict)
			assert.Equal(t, report.VerdictLine(tt.expected), resp.VerdictLine)
			assert.NotEmpty(t, resp.ID)
			assert.Equal(t, repository.KindVerification, resp.Kind)
			assert.Contains(t, resp.Markdown, "# Brand Color Verification")
		})
	}
}

func TestVerify_StoresReport(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	resp, err := f.svc.Verify(ctx, models.VerifyRequest{Location: "shots/gold.png"})
	require.NoError(t, err)

	stored, err := f.svc.GetReport(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored.ID)
	assert.Equal(t, "shots/gold.png", stored.Source)
	assert.Equal(t, string(analyzer.VerdictSuccess), stored.Verdict)
	assert.Equal(t, resp.Markdown, stored.Markdown)
	assert.Contains(t, string(stored.Result), `"verdict":"success"`)
}

func TestVerify_CustomPalette(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Verify(context.Background(), models.VerifyRequest{
		Location: "shots/orange.png",
		Brand:    []palette.Entry{{Name: "Accent", Hex: "#FF6B35"}},
		Wrong:    []palette.Entry{{Name: "Navy", Hex: "#2D497B"}},
	})
	require.NoError(t, err)
	assert.Equal(t, analyzer.VerdictSuccess, resp.Verdict)
}

func TestVerify_InvalidPalette(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Verify(context.Background(), models.VerifyRequest{
		Location: "shots/gold.png",
		Brand:    []palette.Entry{{Name: "Bad", Hex: "#GGGGGG"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPalette))
}

func TestVerify_InvalidSettings(t *testing.T) {
	f := newFixture(t, false)

	negative := -1.0
	_, err := f.svc.Verify(context.Background(), models.VerifyRequest{
		Location: "shots/gold.png",
		Settings: &models.MatchSettings{Tolerance: &negative},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestVerify_FetchFailure(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Verify(context.Background(), models.VerifyRequest{Location: "shots/missing.png"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeImageDecode))

	m := f.svc.Metrics()
	assert.Equal(t, int64(1), m.TotalInspections)
	assert.Equal(t, int64(1), m.FetchFailures)
	assert.Equal(t, int64(1), m.FailedInspections)
}

func TestVerify_RejectsLocation(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Verify(context.Background(), models.VerifyRequest{Location: "ftp://example.com/a.png"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Error(t, f.svc.ValidateLocation("ftp://example.com/a.png"))
}

func TestVerifyImage_NotStored(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	resp, err := f.svc.VerifyImage(ctx, "live", solid(30, 30, gold), models.VerifyRequest{})
	require.NoError(t, err)
	assert.Equal(t, analyzer.VerdictSuccess, resp.Verdict)
	assert.Equal(t, "live", resp.Source)

	list, err := f.svc.ListReports(ctx, "live", 10)
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	_, err = f.svc.VerifyImage(ctx, "live", nil, models.VerifyRequest{})
	assert.Error(t, err)
}

func TestVerifyBatch(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.VerifyBatch(context.Background(), models.BatchVerifyRequest{
		Locations: []string{"shots/gold.png", "shots/missing.png", "shots/mixed.png", "shots/orange.png"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 4)
	assert.Equal(t, "shots/gold.png", resp.Items[0].Location)
	assert.Equal(t, analyzer.VerdictSuccess, resp.Items[0].Verdict)
	assert.NotEmpty(t, resp.Items[0].ReportID)
	assert.NotEmpty(t, resp.Items[1].Error)
	assert.Equal(t, analyzer.VerdictPartial, resp.Items[2].Verdict)
	assert.Equal(t, analyzer.VerdictFailure, resp.Items[3].Verdict)

	assert.Equal(t, 4, resp.Summary.Total)
	assert.Equal(t, 3, resp.Summary.Succeeded)
	assert.Equal(t, 1, resp.Summary.Failed)
}

func TestVerifyBatch_KeepsLocationOrder(t *testing.T) {
	f := newFixture(t, false)

	shots := []string{"shots/gold.png", "shots/orange.png", "shots/mixed.png", "shots/two.png"}
	want := map[string]analyzer.Verdict{
		"shots/gold.png":   analyzer.VerdictSuccess,
		"shots/orange.png": analyzer.VerdictFailure,
		"shots/mixed.png":  analyzer.VerdictPartial,
		"shots/two.png":    analyzer.VerdictSuccess,
	}
	locations := make([]string, 0, 24)
	for i := 0; i < 6; i++ {
		locations = append(locations, shots...)
	}

	resp, err := f.svc.VerifyBatch(context.Background(), models.BatchVerifyRequest{Locations: locations})
	require.NoError(t, err)
	require.Len(t, resp.Items, len(locations))
	for i, item := range resp.Items {
		assert.Equal(t, locations[i], item.Location, "item %d", i)
		assert.Equal(t, want[item.Location], item.Verdict, "item %d", i)
	}
	assert.Equal(t, len(locations), resp.Summary.Succeeded)
}

func TestVerifyBatch_AfterClose(t *testing.T) {
	f := newFixture(t, false)
	f.svc.Close()

	resp, err := f.svc.VerifyBatch(context.Background(), models.BatchVerifyRequest{
		Locations: []string{"shots/orange.png", "shots/gold.png"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, analyzer.VerdictFailure, resp.Items[0].Verdict)
	assert.Equal(t, analyzer.VerdictSuccess, resp.Items[1].Verdict)
}

func TestVerifyBatch_Limits(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.VerifyBatch(context.Background(), models.BatchVerifyRequest{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	locations := make([]string, models.MaxBatchLocations+1)
	for i := range locations {
		locations[i] = "shots/gold.png"
	}
	_, err = f.svc.VerifyBatch(context.Background(), models.BatchVerifyRequest{Locations: locations})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestClassify_DefaultsToBrandPalette(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Classify(context.Background(), models.ClassifyRequest{Location: "shots/gold.png"})
	require.NoError(t, err)

	require.Len(t, resp.Result.Matches, 4)
	gold, ok := resp.Result.Match("Primary Gold")
	require.True(t, ok)
	assert.Equal(t, 2500, gold.Count)
	assert.True(t, gold.Found)
	assert.Equal(t, repository.KindClassification, resp.Kind)
}

func TestExtract(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Extract(context.Background(), models.ExtractRequest{Location: "shots/two.png"})
	require.NoError(t, err)

	require.Len(t, resp.Extraction.Colors, 2)
	assert.Len(t, resp.Flutter, 2)
	assert.Contains(t, resp.Markdown, "# Color Palette Extraction")

	zero := 0
	_, err = f.svc.Extract(context.Background(), models.ExtractRequest{
		Location: "shots/two.png",
		Settings: &models.ExtractSettings{Keep: &zero},
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestInspect(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	blank, err := f.svc.Inspect(ctx, models.InspectRequest{Location: "shots/blank.png"})
	require.NoError(t, err)
	assert.False(t, blank.Content.HasContent)

	full, err := f.svc.Inspect(ctx, models.InspectRequest{Location: "shots/gold.png"})
	require.NoError(t, err)
	assert.True(t, full.Content.HasContent)

	stored, err := f.svc.GetReport(ctx, blank.ID)
	require.NoError(t, err)
	assert.Equal(t, "blank", stored.Verdict)
}

func TestCheckText(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.svc.CheckText(context.Background(), models.TextRequest{
		Location: "shots/gold.png",
		Labels:   []string{"Sign In", "Create Account"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Create Account"}, resp.Comparison.MissingLabels)

	_, err = f.svc.CheckText(context.Background(), models.TextRequest{Location: "shots/gold.png"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestCheckText_NoEngine(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.CheckText(context.Background(), models.TextRequest{
		Location:     "shots/gold.png",
		ExpectedText: "Welcome",
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))
}

func TestReports_ListAndMissing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Verify(ctx, models.VerifyRequest{Location: "shots/gold.png"})
		require.NoError(t, err)
	}
	_, err := f.svc.Inspect(ctx, models.InspectRequest{Location: "shots/blank.png"})
	require.NoError(t, err)

	list, err := f.svc.ListReports(ctx, "shots/gold.png", 0)
	require.NoError(t, err)
	assert.Len(t, list.Reports, 3)

	all, err := f.svc.ListReports(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all.Reports, 2)

	_, err = f.svc.GetReport(ctx, "does-not-exist")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	m := f.svc.Metrics()
	assert.Equal(t, int64(4), m.SuccessfulInspections)
	assert.Equal(t, int64(4), m.ReportsSaved)
	assert.Equal(t, int64(3), m.ByVerdict["success"])
}
