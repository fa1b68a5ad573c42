package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/response"
)

type certificateService interface {
	Render(ctx context.Context, req models.CertificateRequest) ([]byte, error)
}

// CertificateHandler serves enrollment certificates.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs a CertificateHandler.
func NewCertificateHandler(svc certificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Generate godoc
// @Summary Generate enrollment certificate
// @Tags Constancia
// @Accept json
// @Produce application/pdf
// @Param payload body models.CertificateRequest true "Certificate fields"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /constancy/generate [post]
func (h *CertificateHandler) Generate(c *gin.Context) {
	var req models.CertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid certificate payload"))
		return
	}

	pdf, err := h.service.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "application/pdf", fmt.Sprintf("constancia_%s.pdf", strings.TrimSpace(req.Cedula)), pdf)
}
