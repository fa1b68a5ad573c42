package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/export"
)

type certificateRenderer interface {
	Render(tpl export.CertificateTemplate, fields map[string]string, issuedAt time.Time) ([]byte, error)
}

// CertificateService validates certificate requests and renders the PDF.
type CertificateService struct {
	renderer certificateRenderer
	template export.CertificateTemplate
	validate *validator.Validate
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewCertificateService constructs the service. compress=false disables PDF
// stream compression regardless of the template.
func NewCertificateService(renderer certificateRenderer, tpl export.CertificateTemplate, compress bool, metrics *MetricsService, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	tpl.Compress = tpl.Compress && compress
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CertificateService{
		renderer: renderer,
		template: tpl,
		validate: validate,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Render produces the certificate PDF. The first missing field, in
// declaration order, is reported and nothing is rendered.
func (s *CertificateService) Render(ctx context.Context, req models.CertificateRequest) (out []byte, err error) {
	req = req.Trimmed()
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := s.logger.With(zap.String("cedula", req.Cedula), zap.String("artifact", ArtifactCertificate))
	logger.Info("render started")
	defer func() {
		s.metrics.ObserveRender(ArtifactCertificate, err, time.Since(start))
		if err != nil {
			logger.Warn("render failed", zap.Error(err))
			return
		}
		logger.Info("render finished", zap.Int("bytes", len(out)), zap.Duration("elapsed", time.Since(start)))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err = s.renderer.Render(s.template, req.Fields(), s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return out, nil
}

func (s *CertificateService) validateRequest(req models.CertificateRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return appErrors.MissingField(fieldErrs[0].Field())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
}
