package models

import (
	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/repository"
	"github.com/anime-shed/brand-inspector-go/internal/textcheck"
)

// ReportEnvelope carries the fields shared by every stored analysis
type ReportEnvelope struct {
	ID                string                `json:"id"`
	Source            string                `json:"source"`
	Kind              repository.ReportKind `json:"kind"`
	Timestamp         string                `json:"timestamp"`
	ProcessingTimeSec float64               `json:"processing_time_sec"`
	Markdown          string                `json:"markdown,omitempty"`
}

// ClassifyResponse is the result of classifying against one palette
type ClassifyResponse struct {
	ReportEnvelope
	Result *matcher.Result `json:"result"`
}

// VerifyResponse is the result of a brand verification
type VerifyResponse struct {
	ReportEnvelope
	Verdict      analyzer.Verdict       `json:"verdict"`
	VerdictLine  string                 `json:"verdict_line"`
	Verification *analyzer.Verification `json:"verification"`
}

// ExtractResponse lists the dominant colors of a screenshot
type ExtractResponse struct {
	ReportEnvelope
	Extraction *analyzer.Extraction `json:"extraction"`
	Flutter    []string             `json:"flutter_constants"`
}

// InspectResponse is the result of the blank-screen check
type InspectResponse struct {
	ReportEnvelope
	Content *analyzer.ContentReport `json:"content"`
}

// TextResponse is the result of an OCR text comparison. Text checks are not
// stored as reports.
type TextResponse struct {
	Source            string                `json:"source"`
	Timestamp         string                `json:"timestamp"`
	ProcessingTimeSec float64               `json:"processing_time_sec"`
	Comparison        *textcheck.Comparison `json:"comparison"`
}

// BatchItem is the outcome for one location of a batch verification
type BatchItem struct {
	Location string           `json:"location"`
	ReportID string           `json:"report_id,omitempty"`
	Verdict  analyzer.Verdict `json:"verdict,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// BatchSummary counts batch outcomes
type BatchSummary struct {
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	ByVerdict map[analyzer.Verdict]int `json:"by_verdict"`
}

// BatchVerifyResponse reports every location in request order
type BatchVerifyResponse struct {
	Items             []BatchItem  `json:"items"`
	Summary           BatchSummary `json:"summary"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
}

// Summarize fills Summary from Items
func (r *BatchVerifyResponse) Summarize() {
	s := BatchSummary{Total: len(r.Items), ByVerdict: make(map[analyzer.Verdict]int)}
	for _, item := range r.Items {
		if item.Error != "" {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.ByVerdict[item.Verdict]++
	}
	r.Summary = s
}

// ReportListResponse lists stored reports, newest first
type ReportListResponse struct {
	Source  string               `json:"source,omitempty"`
	Reports []*repository.Report `json:"reports"`
}
