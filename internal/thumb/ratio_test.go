package thumb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		in   string
		want AspectRatio
	}{
		{"16:9", Ratio16x9},
		{"16/9", Ratio16x9},
		{" 9x16 ", Ratio9x16},
		{"1:1", Ratio1x1},
		{"4/3", Ratio4x3},
		{"3:4", Ratio3x4},
	}
	for _, tt := range tests {
		got, err := ParseAspectRatio(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseAspectRatioRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "21:9", "2/1", "banana"} {
		_, err := ParseAspectRatio(in)
		assert.ErrorIs(t, err, ErrUnsupportedRatio, in)
	}
}

func TestDimensions(t *testing.T) {
	want := map[AspectRatio][2]int{
		Ratio16x9: {1920, 1080},
		Ratio9x16: {1080, 1920},
		Ratio1x1:  {1080, 1080},
		Ratio4x3:  {1440, 1080},
		Ratio3x4:  {1080, 1440},
	}
	for r, dims := range want {
		w, h, err := r.Dimensions()
		require.NoError(t, err)
		assert.Equal(t, dims[0], w, r)
		assert.Equal(t, dims[1], h, r)
	}

	_, _, err := AspectRatio("5/4").Dimensions()
	assert.ErrorIs(t, err, ErrUnsupportedRatio)
}

func TestLookupStyle(t *testing.T) {
	got, ok := LookupStyle("minimalist")
	assert.True(t, ok)
	assert.Equal(t, StyleMinimalist, got)

	got, ok = LookupStyle("bold & punchy")
	assert.True(t, ok)
	assert.Equal(t, StyleBold, got)

	_, ok = LookupStyle("vaporwave")
	assert.False(t, ok)
}

func TestThumbnailFileName(t *testing.T) {
	th := &Thumbnail{AspectRatio: Ratio16x9, MimeType: "image/png"}
	assert.Equal(t, "thumbnail-16x9.png", th.FileName())

	th.MimeType = "image/jpeg"
	assert.Equal(t, "thumbnail-16x9.jpg", th.FileName())
}
