package palette

import (
	"testing"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"#FEBD59", RGB{254, 189, 89}},
		{"febd59", RGB{254, 189, 89}},
		{"  #2d497b ", RGB{45, 73, 123}},
		{"#fff", RGB{255, 255, 255}},
		{"#0a0", RGB{0, 170, 0}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseHex_Malformed(t *testing.T) {
	for _, in := range []string{"", "#", "#12345", "#1234567", "#GGGGGG", "blue"} {
		_, err := ParseHex(in)
		require.Error(t, err, in)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPalette), "%q: %v", in, err)
	}
}

func TestParse_KeepsOrder(t *testing.T) {
	p, err := Parse("Navy Blue=#2D497B, Primary Gold=#FEBD59,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"Navy Blue", "Primary Gold"}, p.Names())
	assert.Equal(t, "#febd59", p[1].Hex())
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		" , ",
		"Primary Gold",
		"=#FEBD59",
		"Gold=#XYZ",
	}
	for _, in := range tests {
		_, err := Parse(in)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPalette), "%q: %v", in, err)
	}
}

func TestFromEntries(t *testing.T) {
	p, err := FromEntries([]Entry{{Name: "A", Hex: "#010203"}, {Name: "A", Hex: "#040506"}})
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, RGB{4, 5, 6}, p[1].RGB)
	assert.Equal(t, []Entry{{Name: "A", Hex: "#010203"}, {Name: "A", Hex: "#040506"}}, p.Entries())

	_, err = FromEntries(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPalette))
}

func TestDefaults(t *testing.T) {
	brand := BrandDefaults()
	assert.Equal(t, []string{"Primary Gold", "Navy Blue", "Darker Gold", "Light Golden"}, brand.Names())

	wrong := WrongDefaults()
	assert.Equal(t, []string{"Orange (WRONG)", "Pink (WRONG)"}, wrong.Names())

	reparsed, err := Parse(brand.String())
	require.NoError(t, err)
	assert.Equal(t, brand, reparsed)

	// Each call returns an independent copy.
	brand[0].Name = "changed"
	assert.Equal(t, "Primary Gold", BrandDefaults()[0].Name)
}

func TestPackUnpack(t *testing.T) {
	c := RGB{R: 0x12, G: 0x34, B: 0x56}
	assert.Equal(t, uint32(0x123456), c.Pack())
	assert.Equal(t, c, Unpack(c.Pack()))
	assert.Equal(t, "(18, 52, 86)", c.String())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		c    RGB
		want string
	}{
		{RGB{10, 10, 10}, "Black/Dark Gray"},
		{RGB{250, 250, 250}, "White"},
		{RGB{180, 180, 180}, "Light Gray"},
		{RGB{100, 100, 100}, "Gray"},
		{RGB{254, 189, 89}, "Golden/Amber"},
		{RGB{45, 73, 123}, "Navy Blue"},
		{RGB{255, 107, 53}, "Red/Orange"},
		{RGB{0, 200, 0}, "Green"},
		{RGB{255, 143, 163}, "Red/Pink"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.c), "%v", tt.c)
	}
}

func TestFlutterConstant(t *testing.T) {
	assert.Equal(t,
		"static const Color primary = Color(0xFFFEBD59); // Golden/Amber",
		FlutterConstant(1, RGB{254, 189, 89}))
	assert.Equal(t,
		"static const Color color3 = Color(0xFF00C800); // Green",
		FlutterConstant(3, RGB{0, 200, 0}))
}
