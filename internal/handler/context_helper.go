package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unexca/student-docs-api/internal/middleware"
	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// authorizeCedula allows ADMIN callers and the owner of cedula.
func authorizeCedula(c *gin.Context, cedula string) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Rol == models.RoleAdmin || claims.Cedula == cedula {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "cannot access documents of another student")
}
