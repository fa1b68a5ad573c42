package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unexca/student-docs-api/api/swagger"
	"github.com/unexca/student-docs-api/internal/handler"
	"github.com/unexca/student-docs-api/internal/middleware"
	"github.com/unexca/student-docs-api/internal/models"
	"github.com/unexca/student-docs-api/internal/repository"
	"github.com/unexca/student-docs-api/internal/service"
	"github.com/unexca/student-docs-api/pkg/cache"
	"github.com/unexca/student-docs-api/pkg/config"
	"github.com/unexca/student-docs-api/pkg/database"
	"github.com/unexca/student-docs-api/pkg/export"
	"github.com/unexca/student-docs-api/pkg/logger"
	corsmiddleware "github.com/unexca/student-docs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unexca/student-docs-api/pkg/middleware/requestid"
	"github.com/unexca/student-docs-api/pkg/render"
	"github.com/unexca/student-docs-api/pkg/storage"
)

// @title UNEXCA Student Documents API
// @version 1.0.0
// @description ID cards and enrollment certificates for UNEXCA students
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewCardRepository(db)
	checks := map[string]handler.Pinger{"database": studentRepo}

	var profileCache *service.CacheService
	if cfg.ProfileCache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, profile cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close()
			profileCache = service.NewCacheService(cacheRepo, metrics, cfg.ProfileCache.TTL, logr, true)
			checks["redis"] = cacheRepo
		}
	}

	cardStore, err := storage.NewLocalStorage(cfg.Card.OutputDir)
	if err != nil {
		logr.Fatal("failed to prepare card directory", zap.Error(err))
	}
	uploadStore, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	assets := render.SharedAssets()
	defaults := service.NewAssetDefaults(cfg.Card.DefaultRole, cfg.Card.DefaultPhotoPath, assets)
	studentSvc := service.NewStudentService(studentRepo, userRepo, defaults, profileCache, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		DefaultRole:       models.UserRole(cfg.Card.DefaultRole),
	})

	cardOpts := []service.CardServiceOption{
		service.WithCardMetrics(metrics),
		service.WithShareSigner(storage.NewSignedURLSigner(cfg.Share.Secret, cfg.Share.TTL)),
	}
	if cfg.Mirror.Enabled {
		mirror, err := storage.NewS3Mirror(context.Background(), cfg.Mirror, logr)
		if err != nil {
			logr.Warn("card mirror disabled", zap.Error(err))
		} else {
			cardOpts = append(cardOpts, service.WithCardMirror(mirror))
		}
	}
	cardSvc := service.NewCardService(service.CardConfig{
		BackgroundPath:  cfg.Card.BackgroundPath,
		BackPath:        cfg.Card.BackPath,
		BoldFontPath:    cfg.Card.BoldFontPath,
		RegularFontPath: cfg.Card.RegularFontPath,
		ValidityMonths:  cfg.Card.ValidityMonths,
		RoundedPhoto:    cfg.Card.RoundedPhoto,
	}, studentSvc, cardRepo, cardStore, defaults, logr, cardOpts...)

	tpl, err := export.LoadCertificateTemplate(cfg.Certificate.TemplatePath)
	if err != nil {
		logr.Fatal("failed to load certificate template", zap.String("path", cfg.Certificate.TemplatePath), zap.Error(err))
	}
	certSvc := service.NewCertificateService(export.NewCertificatePDF(cfg.Certificate.AssetsDir, logr), tpl, cfg.Certificate.Compress, metrics, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, cfg.APIPrefix, handler.Routes{
		Auth:        handler.NewAuthHandler(authSvc, studentSvc),
		Certificate: handler.NewCertificateHandler(certSvc),
		Card:        handler.NewCardHandler(cardSvc, uploadStore, cfg.Upload.MaxSizeBytes, cfg.APIPrefix+"/carnet/shared", logr),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
		Tokens:      authSvc,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
