package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 10))
	for x := 0; x < 6; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, c)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestParseSheetMode(t *testing.T) {
	mode, err := ParseSheetMode("")
	require.NoError(t, err)
	assert.Equal(t, SheetHorizontal, mode)

	mode, err = ParseSheetMode("vertical")
	require.NoError(t, err)
	assert.Equal(t, SheetVertical, mode)

	_, err = ParseSheetMode("diagonal")
	require.Error(t, err)
}

func TestCardSheetRendersBothFaces(t *testing.T) {
	front := solidPNG(t, color.RGBA{R: 200, A: 255})
	back := solidPNG(t, color.RGBA{B: 200, A: 255})

	for _, mode := range []SheetMode{SheetHorizontal, SheetVertical} {
		out, err := NewCardSheetPDF().Render(front, back, mode)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		assert.Equal(t, 2, bytes.Count(out, []byte("/Subtype /Image")), string(mode))
	}

	out, err := NewCardSheetPDF().Render(front, nil, SheetHorizontal)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(out, []byte("/Subtype /Image")))

	_, err = NewCardSheetPDF().Render(nil, back, SheetHorizontal)
	require.Error(t, err)
}
