package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type profileService interface {
	Profile(ctx context.Context, cedula string) (*models.StudentProfile, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service  authService
	profiles profileService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, profiles profileService) *AuthHandler {
	return &AuthHandler{service: svc, profiles: profiles}
}

// Login godoc
// @Summary Authenticate student
// @Description Authenticate by cedula and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Profile godoc
// @Summary Current student profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.profiles.Profile(c.Request.Context(), claims.Cedula)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile)
}
