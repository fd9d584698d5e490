package repository

import (
	"context"
	"encoding/json"
	"image"
	"time"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage validates a location and retrieves the image behind it
	FetchImage(ctx context.Context, location string) (image.Image, error)

	// ValidateLocation validates if the provided location is acceptable
	ValidateLocation(location string) error
}

// ReportKind names the analysis that produced a report
type ReportKind string

const (
	KindClassification ReportKind = "classification"
	KindVerification   ReportKind = "verification"
	KindExtraction     ReportKind = "extraction"
	KindContent        ReportKind = "content"
)

// ReportRepository stores analysis reports so runs can be compared over time
type ReportRepository interface {
	// Save stores a report. ID and CreatedAt must be set.
	Save(ctx context.Context, report *Report) error

	// Get retrieves a stored report
	Get(ctx context.Context, id string) (*Report, error)

	// ListBySource returns the newest reports for a source, newest first.
	// An empty source lists reports for every source.
	ListBySource(ctx context.Context, source string, limit int) ([]*Report, error)

	Close() error
}

// Report is one persisted analysis
type Report struct {
	ID        string          `json:"id"`
	Kind      ReportKind      `json:"kind"`
	Source    string          `json:"source"`
	Verdict   string          `json:"verdict,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Duration  time.Duration   `json:"duration_ns"`
	Result    json.RawMessage `json:"result"`
	Markdown  string          `json:"markdown,omitempty"`
}
