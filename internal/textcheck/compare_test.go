package textcheck

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sign In", "sign in"},
		{"  Welcome,\n back!  ", "welcome back"},
		{"Step 2/3", "step 23"},
		{"", ""},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCharacterErrorRate(t *testing.T) {
	assert.Equal(t, 0.0, CharacterErrorRate("hello", "hello"))
	assert.InDelta(t, 0.2, CharacterErrorRate("hello", "hallo"), 1e-9)
	assert.Equal(t, 0.0, CharacterErrorRate("", "anything"))
}

func TestCompare_ExactText(t *testing.T) {
	c := Compare("Welcome back", "WELCOME BACK!", []string{"Welcome"}, 0)

	assert.Equal(t, 0.0, c.WER)
	assert.Equal(t, 2, c.ReferenceWords)
	assert.Equal(t, 0.0, c.CER)
	require.Len(t, c.Labels, 1)
	assert.True(t, c.Labels[0].Found)
	assert.Equal(t, "welcome", c.Labels[0].BestMatch)
	assert.Equal(t, 1.0, c.Labels[0].Similarity)
	assert.True(t, c.AllLabelsFound())
}

func TestCompare_FuzzyLabel(t *testing.T) {
	// One OCR slip in an eight letter label still passes the default floor
	c := Compare("", "Tap to Contimue now", []string{"Continue"}, 0)

	require.Len(t, c.Labels, 1)
	m := c.Labels[0]
	assert.Equal(t, "contimue", m.BestMatch)
	assert.Equal(t, 1, m.Distance)
	assert.InDelta(t, 0.875, m.Similarity, 1e-9)
	assert.True(t, m.Found)
	assert.Equal(t, 0.0, c.WER)
}

func TestCompare_MultiWordLabel(t *testing.T) {
	c := Compare("", "forgot your password? sign in here", []string{"Sign In", "Create account"}, 0)

	require.Len(t, c.Labels, 2)
	assert.True(t, c.Labels[0].Found)
	assert.Equal(t, "sign in", c.Labels[0].BestMatch)
	assert.False(t, c.Labels[1].Found)
	assert.Equal(t, []string{"Create account"}, c.MissingLabels)
	assert.False(t, c.AllLabelsFound())
}

func TestCompare_LabelLongerThanText(t *testing.T) {
	c := Compare("", "ok", []string{"Start your free trial"}, 0)

	require.Len(t, c.Labels, 1)
	assert.False(t, c.Labels[0].Found)
	assert.Equal(t, 0.0, c.Labels[0].Similarity)
}

func TestCompare_CustomSimilarity(t *testing.T) {
	c := Compare("", "contimue", []string{"continue"}, 0.95)
	require.Len(t, c.Labels, 1)
	assert.False(t, c.Labels[0].Found)
}

func TestCompare_WordErrors(t *testing.T) {
	c := Compare("the quick brown fox", "the quick brown cat", nil, 0)

	assert.Equal(t, 4, c.ReferenceWords)
	assert.InDelta(t, 0.25, c.WER, 1e-9)
	assert.Greater(t, c.CER, 0.0)
	assert.Empty(t, c.Labels)
}

// fakeEngine returns canned text
type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f.text, f.err
}

func TestCheck_UsesEngine(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	c, err := Check(context.Background(), &fakeEngine{text: "Get Started"}, img, "Get started", []string{"Get Started"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Get Started", c.Recognized)
	assert.Equal(t, 0.0, c.WER)
	assert.True(t, c.AllLabelsFound())
}

func TestCheck_EngineError(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	_, err := Check(context.Background(), &fakeEngine{err: assert.AnError}, img, "", nil, 0)
	assert.ErrorIs(t, err, assert.AnError)
}
