package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unexca/student-docs-api/internal/middleware"
)

// Routes groups the handlers mounted on the API.
type Routes struct {
	Auth        *AuthHandler
	Certificate *CertificateHandler
	Card        *CardHandler
	Metrics     *MetricsHandler
	Tokens      middleware.TokenValidator
}

// Register mounts probes at the root and the API under prefix.
func Register(r *gin.Engine, prefix string, rt Routes) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Ready)
	r.GET("/metrics", rt.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", rt.Auth.Login)
	api.POST("/constancy/generate", rt.Certificate.Generate)
	api.GET("/carnet/shared/:token", rt.Card.Shared)

	secured := api.Group("")
	secured.Use(middleware.JWT(rt.Tokens))
	secured.GET("/auth/profile", rt.Auth.Profile)
	secured.POST("/carnet/generate", rt.Card.Generate)
	secured.GET("/carnet/image/:id", rt.Card.Image)

	owned := secured.Group("/carnet")
	owned.Use(middleware.OwnerOrAdmin())
	owned.GET("/download/:cedula", rt.Card.Download)
	owned.GET("/list/:cedula", rt.Card.List)
	owned.GET("/validity/:cedula", rt.Card.Validity)
	owned.GET("/print/:cedula", rt.Card.Print)
}
