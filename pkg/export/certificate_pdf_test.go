package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func certificateFields() map[string]string {
	return map[string]string{
		"nombre":   "Ana",
		"apellido": "Gomez",
		"cedula":   "12345678",
		"nucleo":   "Altagracia",
		"periodo":  "2024-1",
		"carrera":  "Informática",
		"seccion":  "A",
		"turno":    "Diurno",
	}
}

func uncompressed(tpl CertificateTemplate) CertificateTemplate {
	tpl.Compress = false
	return tpl
}

func TestCertificateContainsFieldValues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	renderer := NewCertificatePDF(t.TempDir(), zap.New(core))
	issued := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	out, err := renderer.Render(uncompressed(DefaultCertificateTemplate()), certificateFields(), issued)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	body := string(out)
	assert.Contains(t, body, "(Ana Gomez) Tj")
	assert.Contains(t, body, "12345678")
	assert.Contains(t, body, "Altagracia")
	assert.Contains(t, body, "2024-1")
	assert.Contains(t, body, "Inform\xe1tica")
	assert.Contains(t, body, "Diurno")
	assert.Contains(t, body, "(marzo) Tj")
	assert.Contains(t, body, "(2024.) Tj")
	assert.Contains(t, body, " Tw")

	// membrete.jpg is absent from the temp assets dir
	assert.Equal(t, 1, logs.FilterMessage("certificate logo skipped").Len())
}

func TestCertificateSkipsUndecodableLogo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "membrete.jpg"), []byte("not an image"), 0o644))
	core, logs := observer.New(zap.WarnLevel)

	out, err := NewCertificatePDF(dir, zap.New(core)).Render(DefaultCertificateTemplate(), certificateFields(), time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.NotContains(t, string(out), "/Subtype /Image")
	assert.Equal(t, 1, logs.Len())
}

func TestCertificateDrawsLogo(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 40, B: 120, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	tpl := DefaultCertificateTemplate()
	tpl.Logos = []Logo{{Path: "logo.png", X: 10, Y: 10, Width: 40, Height: 20}}

	out, err := NewCertificatePDF(dir, nil).Render(tpl, certificateFields(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(out), "/Subtype /Image")
}

func TestLoadCertificateTemplate(t *testing.T) {
	tpl, err := LoadCertificateTemplate("")
	require.NoError(t, err)
	assert.Equal(t, "constancia", tpl.Name)

	legacy, err := LoadCertificateTemplate(filepath.Join("..", "..", "configs", "certificate_legacy.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Helvetica", legacy.FontFamily)
	assert.Equal(t, []string{"Constancia"}, legacy.Title.Lines)
	assert.Contains(t, legacy.Body.Text, "{turno}")
	require.Len(t, legacy.Logos, 1)
	assert.Equal(t, 200.0, legacy.Logos[0].Width)

	out, err := NewCertificatePDF(t.TempDir(), nil).Render(uncompressed(legacy), certificateFields(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(out), "Helvetica")
	assert.Contains(t, string(out), "(Ana Gomez) Tj")
}

func TestLoadCertificateTemplateRejectsEmptyBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\n"), 0o644))

	_, err := LoadCertificateTemplate(path)
	require.Error(t, err)

	_, err = LoadCertificateTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
