package textcheck

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes the text rendered in an image
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// tesseractEngine runs Tesseract through gosseract. A client is created per
// call because gosseract clients are not safe for concurrent use.
type tesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates an OCR engine for the given tesseract language
// codes, e.g. "eng" or "eng+deu".
func NewTesseractEngine(language string) Engine {
	langs := strings.Split(language, "+")
	if language == "" {
		langs = []string{"eng"}
	}
	return &tesseractEngine{languages: langs}
}

func (e *tesseractEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperrors.NewProcessingError("failed to encode image for OCR", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", apperrors.NewProcessingError("failed to set OCR language", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", apperrors.NewProcessingError("failed to load image for OCR", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", apperrors.NewProcessingError("OCR failed", err)
	}
	return text, nil
}
