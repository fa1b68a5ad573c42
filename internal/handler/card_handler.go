package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/export"
	"github.com/unexca/student-docs-api/pkg/response"
	"github.com/unexca/student-docs-api/pkg/storage"
)

type cardService interface {
	Render(ctx context.Context, cedula string, photo models.PhotoSource) (*models.IssuedCard, error)
	Latest(ctx context.Context, cedula string) (*models.IssuedCard, error)
	History(ctx context.Context, cedula string) ([]models.IssuedCard, error)
	HistoryCSV(ctx context.Context, cedula string) ([]byte, error)
	Get(ctx context.Context, id string) (*models.IssuedCard, error)
	Image(card *models.IssuedCard) ([]byte, error)
	Validity(ctx context.Context, cedula string, now time.Time) (*models.CardValidity, error)
	PrintSheet(ctx context.Context, cedula string, mode export.SheetMode) ([]byte, error)
	ShareLink(card *models.IssuedCard) (*models.CardShareLink, error)
	Shared(ctx context.Context, token string) (*models.IssuedCard, []byte, error)
}

type uploadStore interface {
	SaveStream(filename string, r io.Reader, limit int64) (string, error)
	Delete(filename string) error
}

var (
	allowedPhotoExt = map[string]struct{}{".png": {}, ".jpg": {}, ".jpeg": {}}
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// CardHandler serves ID card endpoints.
type CardHandler struct {
	service    cardService
	uploads    uploadStore
	maxUpload  int64
	sharedBase string
	logger     *zap.Logger
}

// NewCardHandler constructs a CardHandler. sharedBase is the public path
// prefix share tokens are appended to.
func NewCardHandler(svc cardService, uploads uploadStore, maxUpload int64, sharedBase string, logger *zap.Logger) *CardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardHandler{service: svc, uploads: uploads, maxUpload: maxUpload, sharedBase: strings.TrimRight(sharedBase, "/"), logger: logger}
}

// Generate godoc
// @Summary Generate ID card
// @Tags Carnet
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param cedula formData string true "Student cedula"
// @Param foto formData file false "Photo (png, jpg, jpeg)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /carnet/generate [post]
func (h *CardHandler) Generate(c *gin.Context) {
	cedula := strings.TrimSpace(c.PostForm("cedula"))
	if cedula == "" {
		response.Error(c, appErrors.MissingField("cedula"))
		return
	}
	if err := authorizeCedula(c, cedula); err != nil {
		response.Error(c, err)
		return
	}

	photo, err := h.savePhoto(c, cedula)
	if err != nil {
		response.Error(c, err)
		return
	}

	card, err := h.service.Render(c.Request.Context(), cedula, photo)
	if err != nil {
		if photo.Path != "" {
			if delErr := h.uploads.Delete(photo.Path); delErr != nil {
				h.logger.Warn("discard upload failed", zap.String("path", photo.Path), zap.Error(delErr))
			}
		}
		response.Error(c, err)
		return
	}

	res := models.IssuedCardResponse{IssuedCard: *card}
	if link, err := h.service.ShareLink(card); err == nil {
		link.URL = h.sharedBase + "/" + link.Token
		res.Share = link
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		h.logger.Warn("share link unavailable", zap.String("card_id", card.ID), zap.Error(err))
	}
	response.Created(c, res)
}

func (h *CardHandler) savePhoto(c *gin.Context, cedula string) (models.PhotoSource, error) {
	header, err := c.FormFile("foto")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.PhotoSource{}, nil
		}
		return models.PhotoSource{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedPhotoExt[ext]; !ok {
		invalid := appErrors.Clone(appErrors.ErrValidation, "photo must be png, jpg or jpeg")
		invalid.Field = "foto"
		return models.PhotoSource{}, invalid
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return models.PhotoSource{}, appErrors.ErrPayloadTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return models.PhotoSource{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read photo")
	}
	defer file.Close()

	path, err := h.uploads.SaveStream(uploadName(cedula, header.Filename), file, h.maxUpload)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return models.PhotoSource{}, appErrors.ErrPayloadTooLarge
		}
		return models.PhotoSource{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	return models.PhotoSource{Path: path}, nil
}

func uploadName(cedula, original string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(original), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "foto"
	}
	return fmt.Sprintf("%s_%s", cedula, name)
}

// Download godoc
// @Summary Download the latest ID card
// @Tags Carnet
// @Produce image/png
// @Security BearerAuth
// @Param cedula path string true "Student cedula"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /carnet/download/{cedula} [get]
func (h *CardHandler) Download(c *gin.Context) {
	cedula := c.Param("cedula")
	card, err := h.service.Latest(c.Request.Context(), cedula)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.Image(card)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "image/png", cedula+".png", data)
}

// List godoc
// @Summary Card history
// @Tags Carnet
// @Produce json
// @Produce text/csv
// @Security BearerAuth
// @Param cedula path string true "Student cedula"
// @Param format query string false "json or csv"
// @Success 200 {object} response.Envelope
// @Router /carnet/list/{cedula} [get]
func (h *CardHandler) List(c *gin.Context) {
	cedula := c.Param("cedula")
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "csv":
		data, err := h.service.HistoryCSV(c.Request.Context(), cedula)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, "text/csv; charset=utf-8", fmt.Sprintf("carnets_%s.csv", cedula), data)
	case "json":
		cards, err := h.service.History(c.Request.Context(), cedula)
		if err != nil {
			response.Error(c, err)
			return
		}
		if cards == nil {
			cards = []models.IssuedCard{}
		}
		response.JSON(c, http.StatusOK, cards, map[string]interface{}{"total": len(cards)})
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json or csv"))
	}
}

// Validity godoc
// @Summary Check latest card validity
// @Tags Carnet
// @Produce json
// @Security BearerAuth
// @Param cedula path string true "Student cedula"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /carnet/validity/{cedula} [get]
func (h *CardHandler) Validity(c *gin.Context) {
	res, err := h.service.Validity(c.Request.Context(), c.Param("cedula"), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Print godoc
// @Summary Printable card sheet
// @Tags Carnet
// @Produce application/pdf
// @Security BearerAuth
// @Param cedula path string true "Student cedula"
// @Param mode query string false "horizontal or vertical"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /carnet/print/{cedula} [get]
func (h *CardHandler) Print(c *gin.Context) {
	mode, err := export.ParseSheetMode(c.Query("mode"))
	if err != nil {
		invalid := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "mode must be horizontal or vertical")
		invalid.Field = "mode"
		response.Error(c, invalid)
		return
	}
	cedula := c.Param("cedula")
	pdf, err := h.service.PrintSheet(c.Request.Context(), cedula, mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "application/pdf", fmt.Sprintf("carnet_%s.pdf", cedula), pdf)
}

// Image godoc
// @Summary Card image by id
// @Tags Carnet
// @Produce image/png
// @Security BearerAuth
// @Param id path string true "Card id"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /carnet/image/{id} [get]
func (h *CardHandler) Image(c *gin.Context) {
	card, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := authorizeCedula(c, card.Cedula); err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.Image(card)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, "image/png", data)
}

// Shared godoc
// @Summary Card image through a signed link
// @Tags Carnet
// @Produce image/png
// @Param token path string true "Share token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /carnet/shared/{token} [get]
func (h *CardHandler) Shared(c *gin.Context) {
	_, data, err := h.service.Shared(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, "image/png", data)
}
