package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/export"
)

type recordingRenderer struct {
	calls  int
	tpl    export.CertificateTemplate
	fields map[string]string
	err    error
}

func (r *recordingRenderer) Render(tpl export.CertificateTemplate, fields map[string]string, issuedAt time.Time) ([]byte, error) {
	r.calls++
	r.tpl = tpl
	r.fields = fields
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

func completeCertificate() models.CertificateRequest {
	return models.CertificateRequest{
		Nombre:   " Ana ",
		Apellido: "Gomez",
		Cedula:   "V12345678",
		Nucleo:   "Caracas",
		Periodo:  "2024-I",
		Carrera:  "Informática",
		Seccion:  "A",
		Turno:    "Mañana",
	}
}

func TestCertificateServiceReportsFirstMissingField(t *testing.T) {
	renderer := &recordingRenderer{}
	svc := NewCertificateService(renderer, export.DefaultCertificateTemplate(), true, nil, nil)

	req := completeCertificate()
	req.Apellido = "   "
	req.Turno = ""
	_, err := svc.Render(context.Background(), req)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "apellido", appErrors.FromError(err).Field)

	req = completeCertificate()
	req.Seccion = ""
	_, err = svc.Render(context.Background(), req)
	assert.Equal(t, "seccion", appErrors.FromError(err).Field)
	assert.Zero(t, renderer.calls)
}

func TestCertificateServiceRendersTrimmedFields(t *testing.T) {
	renderer := &recordingRenderer{}
	metrics := NewMetricsService()
	svc := NewCertificateService(renderer, export.DefaultCertificateTemplate(), false, metrics, nil)

	out, err := svc.Render(context.Background(), completeCertificate())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "Ana", renderer.fields["nombre"])
	assert.False(t, renderer.tpl.Compress)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.renderTotal.WithLabelValues(ArtifactCertificate, "success")))
}

func TestCertificateServiceWrapsRendererFailure(t *testing.T) {
	renderer := &recordingRenderer{err: errors.New("gofpdf: font not found")}
	svc := NewCertificateService(renderer, export.DefaultCertificateTemplate(), true, nil, nil)

	_, err := svc.Render(context.Background(), completeCertificate())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestCertificateServiceWithRealRenderer(t *testing.T) {
	svc := NewCertificateService(export.NewCertificatePDF(t.TempDir(), nil), export.DefaultCertificateTemplate(), false, nil, nil)
	out, err := svc.Render(context.Background(), completeCertificate())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "V12345678")
}
