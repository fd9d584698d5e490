// Package report renders analysis results as markdown.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FilePrefix starts every report file name
const FilePrefix = "BRAND_COLOR_REPORT_"

// Header is the common front matter of every report
type Header struct {
	Title       string
	Source      string
	GeneratedAt time.Time
}

type classificationDoc struct {
	Header
	Result *matcher.Result
}

type verificationDoc struct {
	Header
	Verification *analyzer.Verification
}

type extractionDoc struct {
	Header
	Extraction *analyzer.Extraction
}

type contentDoc struct {
	Header
	Content *analyzer.ContentReport
}

// Renderer writes markdown reports. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewRenderer creates a renderer that formats numbers for lang
func NewRenderer(lang language.Tag) *Renderer {
	p := message.NewPrinter(lang)
	funcs := template.FuncMap{
		"num":  func(n int) string { return p.Sprintf("%v", n) },
		"pct":  func(f float64) string { return p.Sprintf("%.2f%%", f) },
		"pct1": func(f float64) string { return p.Sprintf("%.1f%%", f) },
		"share": func(n, total int) string {
			if total == 0 {
				return p.Sprintf("%.2f%%", 0.0)
			}
			return p.Sprintf("%.2f%%", float64(n)*100/float64(total))
		},
		"inc":         func(i int) int { return i + 1 },
		"verdictLine": VerdictLine,
	}

	return &Renderer{
		tmpl: template.Must(template.New("report").Funcs(funcs).Parse(templates)),
		now:  time.Now,
	}
}

// VerdictLine is the human summary of a verdict
func VerdictLine(v analyzer.Verdict) string {
	switch v {
	case analyzer.VerdictSuccess:
		return "SUCCESS: Correct brand colors found, no wrong colors detected"
	case analyzer.VerdictPartial:
		return "WARNING: Both correct AND wrong colors found, partial fix?"
	case analyzer.VerdictFailure:
		return "FAILURE: Wrong colors are still being used"
	default:
		return "UNCLEAR: Neither correct nor wrong colors found in significant amounts"
	}
}

func (r *Renderer) header(title, source string) Header {
	return Header{Title: title, Source: source, GeneratedAt: r.now()}
}

// Classification renders a single-palette classification
func (r *Renderer) Classification(w io.Writer, source string, res *matcher.Result) error {
	return r.tmpl.ExecuteTemplate(w, "classification", classificationDoc{
		Header: r.header("Brand Color Classification", source),
		Result: res,
	})
}

// Verification renders a brand verification
func (r *Renderer) Verification(w io.Writer, source string, v *analyzer.Verification) error {
	return r.tmpl.ExecuteTemplate(w, "verification", verificationDoc{
		Header:       r.header("Brand Color Verification", source),
		Verification: v,
	})
}

// Extraction renders an extracted palette with Flutter constants
func (r *Renderer) Extraction(w io.Writer, source string, ex *analyzer.Extraction) error {
	return r.tmpl.ExecuteTemplate(w, "extraction", extractionDoc{
		Header:     r.header("Color Palette Extraction", source),
		Extraction: ex,
	})
}

// Content renders a blank-screenshot check
func (r *Renderer) Content(w io.Writer, source string, c *analyzer.ContentReport) error {
	return r.tmpl.ExecuteTemplate(w, "content", contentDoc{
		Header:  r.header("Screenshot Content Check", source),
		Content: c,
	})
}

// FileName returns the report file name for t
func FileName(t time.Time) string {
	return FilePrefix + t.Format("20060102_150405") + ".md"
}

// WriteFile renders into a new file in dir and returns its path
func WriteFile(dir string, t time.Time, render func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, FileName(t))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
