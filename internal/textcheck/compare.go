// Package textcheck compares the text visible in a screenshot with the text
// the design expects.
package textcheck

import (
	"context"
	"image"
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// DefaultLabelSimilarity is the minimum similarity for a label to count as
// present.
const DefaultLabelSimilarity = 0.8

// LabelMatch reports whether one expected UI label appears in the OCR text
type LabelMatch struct {
	Label      string  `json:"label"`
	Found      bool    `json:"found"`
	BestMatch  string  `json:"best_match,omitempty"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// Comparison is the outcome of comparing expected and recognized text
type Comparison struct {
	Expected       string       `json:"expected,omitempty"`
	Recognized     string       `json:"recognized"`
	WER            float64      `json:"word_error_rate"`
	ReferenceWords int          `json:"reference_words"`
	CER            float64      `json:"character_error_rate"`
	Labels         []LabelMatch `json:"labels,omitempty"`
	MissingLabels  []string     `json:"missing_labels,omitempty"`
}

// AllLabelsFound reports whether every expected label was found
func (c *Comparison) AllLabelsFound() bool {
	return len(c.MissingLabels) == 0
}

// Compare scores recognized text against the expected transcript and checks
// for each label. Either expected or labels may be empty. minSimilarity <= 0
// selects DefaultLabelSimilarity.
func Compare(expected, recognized string, labels []string, minSimilarity float64) Comparison {
	if minSimilarity <= 0 {
		minSimilarity = DefaultLabelSimilarity
	}

	normExpected := Normalize(expected)
	normRecognized := Normalize(recognized)

	c := Comparison{
		Expected:   expected,
		Recognized: recognized,
	}
	if normExpected != "" {
		ref := strings.Fields(normExpected)
		c.WER, _ = wer.WER(ref, strings.Fields(normRecognized))
		c.ReferenceWords = len(ref)
		c.CER = CharacterErrorRate(normExpected, normRecognized)
	}

	words := strings.Fields(normRecognized)
	for _, label := range labels {
		m := matchLabel(label, words)
		m.Found = m.Similarity >= minSimilarity
		if !m.Found {
			c.MissingLabels = append(c.MissingLabels, label)
		}
		c.Labels = append(c.Labels, m)
	}
	return c
}

// CharacterErrorRate is the edit distance divided by the reference length
func CharacterErrorRate(reference, hypothesis string) float64 {
	n := len([]rune(reference))
	if n == 0 {
		return 0
	}
	return float64(levenshtein.Distance(reference, hypothesis)) / float64(n)
}

// matchLabel slides a window with the label's word count over the recognized
// words and keeps the closest window.
func matchLabel(label string, words []string) LabelMatch {
	target := Normalize(label)
	m := LabelMatch{Label: label, Distance: len([]rune(target))}
	if target == "" {
		return m
	}

	size := len(strings.Fields(target))
	for i := 0; i+size <= len(words); i++ {
		candidate := strings.Join(words[i:i+size], " ")
		d := levenshtein.Distance(target, candidate)
		if m.BestMatch == "" || d < m.Distance {
			m.BestMatch = candidate
			m.Distance = d
		}
		if d == 0 {
			break
		}
	}

	longest := max(len([]rune(target)), len([]rune(m.BestMatch)))
	m.Similarity = 1 - float64(m.Distance)/float64(longest)
	return m
}

// Normalize lowercases s, drops punctuation and collapses whitespace
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Check runs OCR on img and compares the result
func Check(ctx context.Context, engine Engine, img image.Image, expected string, labels []string, minSimilarity float64) (*Comparison, error) {
	text, err := engine.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}
	c := Compare(expected, text, labels, minSimilarity)
	return &c, nil
}
