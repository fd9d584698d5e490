package models

import (
	"testing"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"

	"github.com/stretchr/testify/assert"
)

func TestMatchSettings_Apply(t *testing.T) {
	base := matcher.DefaultOptions()

	var nilSettings *MatchSettings
	assert.Equal(t, base, nilSettings.Apply(base))

	tol := 12.0
	topN := 3
	got := (&MatchSettings{Tolerance: &tol, TopN: &topN}).Apply(base)
	assert.Equal(t, 12.0, got.Tolerance)
	assert.Equal(t, base.NeutralThreshold, got.NeutralThreshold)
	assert.Equal(t, 3, got.TopN)
}

func TestExtractSettings_Apply(t *testing.T) {
	base := analyzer.DefaultExtractOptions()

	var nilSettings *ExtractSettings
	assert.Equal(t, base, nilSettings.Apply(base))

	keep := 4
	got := (&ExtractSettings{Keep: &keep}).Apply(base)
	assert.Equal(t, 4, got.Keep)
	assert.Equal(t, base.Count, got.Count)
}

func TestBatchVerifyRequest_Item(t *testing.T) {
	req := BatchVerifyRequest{Locations: []string{"a.png", "b.png"}, SkipWrong: true}
	item := req.Item("b.png")
	assert.Equal(t, "b.png", item.Location)
	assert.True(t, item.SkipWrong)
}

func TestBatchVerifyResponse_Summarize(t *testing.T) {
	resp := BatchVerifyResponse{Items: []BatchItem{
		{Location: "a.png", Verdict: analyzer.VerdictSuccess},
		{Location: "b.png", Verdict: analyzer.VerdictSuccess},
		{Location: "c.png", Verdict: analyzer.VerdictPartial},
		{Location: "d.png", Error: "not found"},
	}}
	resp.Summarize()

	assert.Equal(t, 4, resp.Summary.Total)
	assert.Equal(t, 3, resp.Summary.Succeeded)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.Equal(t, map[analyzer.Verdict]int{
		analyzer.VerdictSuccess: 2,
		analyzer.VerdictPartial: 1,
	}, resp.Summary.ByVerdict)
}
