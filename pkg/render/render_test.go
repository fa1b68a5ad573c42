package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"

	appErrors "github.com/unexca/student-docs-api/pkg/errors"
)

func TestRoundedMaskCornersAndCenter(t *testing.T) {
	mask := RoundedMask(230, 260, 24)

	for _, p := range []image.Point{{0, 0}, {229, 0}, {0, 259}, {229, 259}} {
		assert.Equal(t, uint8(0), mask.AlphaAt(p.X, p.Y).A, "corner %v", p)
	}
	assert.Equal(t, uint8(0xff), mask.AlphaAt(115, 130).A)
	assert.Equal(t, uint8(0xff), mask.AlphaAt(0, 130).A)
	assert.Equal(t, uint8(0xff), mask.AlphaAt(24, 24).A)
}

func TestApplyMaskClearsCorners(t *testing.T) {
	photo := imaging.New(40, 50, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	clipped := ApplyMask(photo, RoundedMask(40, 50, 8))

	assert.Equal(t, uint8(0), clipped.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), clipped.NRGBAAt(39, 49).A)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, clipped.NRGBAAt(20, 25))
	assert.Equal(t, uint8(255), photo.NRGBAAt(0, 0).A)
}

func TestEncodeQRRoundTrip(t *testing.T) {
	payload := "NOMBRE: Ana\nCARRERA: Informática\nVENCE: 15/03/2025"
	img, err := EncodeQR(payload, 180)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 180, 180), img.Bounds())

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxqr.NewQRCodeReader().Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	})
	require.NoError(t, err)
	assert.Equal(t, payload, res.GetText())
}

func TestAssetCacheReportsMissingAssets(t *testing.T) {
	cache := NewAssetCache()

	_, err := cache.Image(filepath.Join(t.TempDir(), "nope.png"))
	require.True(t, errors.Is(err, appErrors.ErrAssetMissing))

	_, err = cache.Face(filepath.Join(t.TempDir(), "nope.ttf"), 12)
	require.True(t, errors.Is(err, appErrors.ErrAssetMissing))

	broken := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(broken, []byte("not a font"), 0o644))
	_, err = cache.Font(broken)
	require.True(t, errors.Is(err, appErrors.ErrAssetMissing))
}

func TestAssetCacheReusesLoadedAssets(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "bg.png")
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, imaging.New(4, 4, color.White)))
	require.NoError(t, os.WriteFile(imgPath, buf.Bytes(), 0o644))
	fontPath := filepath.Join(dir, "bold.ttf")
	require.NoError(t, os.WriteFile(fontPath, gobold.TTF, 0o644))

	cache := NewAssetCache()
	first, err := cache.Image(imgPath)
	require.NoError(t, err)
	require.NoError(t, os.Remove(imgPath))
	second, err := cache.Image(imgPath)
	require.NoError(t, err)
	assert.Same(t, first, second)

	face, err := cache.Face(fontPath, 30)
	require.NoError(t, err)
	assert.Greater(t, TextWidth(face, "ANA GOMEZ"), 0)
}

func TestDrawTextMarksPixels(t *testing.T) {
	fontPath := filepath.Join(t.TempDir(), "bold.ttf")
	require.NoError(t, os.WriteFile(fontPath, gobold.TTF, 0o644))
	face, err := NewAssetCache().Face(fontPath, 30)
	require.NoError(t, err)

	canvas := imaging.New(200, 60, color.White)
	DrawText(canvas, face, 10, 10, color.RGBA{R: 7, G: 41, B: 115, A: 255}, "ANA")

	dark := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			if canvas.NRGBAAt(x, y).R < 100 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 50)
	for x := 0; x < 200; x++ {
		assert.Equal(t, uint8(255), canvas.NRGBAAt(x, 5).R, "row above the text origin stays blank")
	}
}

func TestDecodePhotoRejectsGarbage(t *testing.T) {
	_, err := DecodePhoto([]byte("definitely not a jpeg"))
	require.True(t, errors.Is(err, appErrors.ErrEncode))
}
