package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/export"
	"github.com/unexca/student-docs-api/pkg/render"
	"github.com/unexca/student-docs-api/pkg/storage"
)

var cedulaPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,20}$`)

type studentLookup interface {
	Find(ctx context.Context, cedula string) (*models.Student, error)
	Role(ctx context.Context, cedula string) string
}

type cardRepository interface {
	Create(ctx context.Context, card *models.IssuedCard, publish func() error) error
	Latest(ctx context.Context, cedula string) (*models.IssuedCard, error)
	ListByCedula(ctx context.Context, cedula string) ([]models.IssuedCard, error)
	FindByID(ctx context.Context, id string) (*models.IssuedCard, error)
}

type cardStore interface {
	Stage(filename string) (*storage.StagedFile, error)
	ReadFile(filename string) ([]byte, error)
}

type cardMirror interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// CardConfig holds the assets and policy for card rendering.
type CardConfig struct {
	BackgroundPath  string
	BackPath        string
	BoldFontPath    string
	RegularFontPath string
	ValidityMonths  int
	RoundedPhoto    bool
}

// CardService renders ID cards and serves their history.
type CardService struct {
	cfg      CardConfig
	students studentLookup
	cards    cardRepository
	store    cardStore
	defaults DefaultProvider
	assets   *render.AssetCache
	sheet    *export.CardSheetPDF
	csv      *export.CSVExporter
	signer   *storage.SignedURLSigner
	mirror   cardMirror
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// CardServiceOption customises optional collaborators.
type CardServiceOption func(*CardService)

// WithCardMirror copies every issued card to object storage.
func WithCardMirror(m cardMirror) CardServiceOption {
	return func(s *CardService) { s.mirror = m }
}

// WithShareSigner enables signed share links.
func WithShareSigner(signer *storage.SignedURLSigner) CardServiceOption {
	return func(s *CardService) { s.signer = signer }
}

// WithCardMetrics records render metrics.
func WithCardMetrics(m *MetricsService) CardServiceOption {
	return func(s *CardService) { s.metrics = m }
}

// WithCardClock overrides the time source.
func WithCardClock(now func() time.Time) CardServiceOption {
	return func(s *CardService) { s.now = now }
}

// WithAssetCache replaces the process-wide asset cache.
func WithAssetCache(c *render.AssetCache) CardServiceOption {
	return func(s *CardService) { s.assets = c }
}

// NewCardService constructs a CardService.
func NewCardService(cfg CardConfig, students studentLookup, cards cardRepository, store cardStore, defaults DefaultProvider, logger *zap.Logger, opts ...CardServiceOption) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ValidityMonths <= 0 {
		cfg.ValidityMonths = 12
	}
	s := &CardService{
		cfg:      cfg,
		students: students,
		cards:    cards,
		store:    store,
		defaults: defaults,
		assets:   render.SharedAssets(),
		sheet:    export.NewCardSheetPDF(),
		csv:      export.NewCSVExporter(true),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render composes a card for cedula, stores it at {cedula}.png and appends a
// history row. Either both the file and the row are written or neither is.
func (s *CardService) Render(ctx context.Context, cedula string, photo models.PhotoSource) (card *models.IssuedCard, err error) {
	cedula = strings.TrimSpace(cedula)
	start := time.Now()
	logger := s.logger.With(zap.String("cedula", cedula), zap.String("artifact", ArtifactCard))
	logger.Info("render started")
	defer func() {
		s.metrics.ObserveRender(ArtifactCard, err, time.Since(start))
		if err != nil {
			logger.Warn("render failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		logger.Info("render finished", zap.String("card_id", card.ID), zap.Duration("elapsed", time.Since(start)))
	}()

	if !cedulaPattern.MatchString(cedula) {
		invalid := appErrors.Clone(appErrors.ErrValidation, "cedula must be 1-20 letters, digits or dashes")
		invalid.Field = "cedula"
		return nil, invalid
	}

	student, err := s.students.Find(ctx, cedula)
	if err != nil {
		return nil, err
	}
	role := s.students.Role(ctx, cedula)

	issuedAt := s.now().UTC().Truncate(time.Microsecond)
	expiresAt := issuedAt.AddDate(0, s.cfg.ValidityMonths, 0)

	img, err := s.compose(student, role, expiresAt, photo)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, appErrors.Encode("card image", err)
	}

	name := cedula + ".png"
	staged, err := s.store.Stage(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage card image")
	}
	defer staged.Discard()
	if _, err := staged.Write(buf.Bytes()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write card image")
	}

	card = &models.IssuedCard{
		ID:        uuid.NewString(),
		Cedula:    cedula,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		ImagePath: staged.Target(),
	}
	if err := s.cards.Create(ctx, card, staged.Commit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record card")
	}

	if s.mirror != nil {
		if key, mirrorErr := s.mirror.Put(ctx, name, "image/png", buf.Bytes()); mirrorErr != nil {
			logger.Warn("card mirror failed", zap.Error(mirrorErr))
		} else {
			logger.Debug("card mirrored", zap.String("key", key))
		}
	}

	return card, nil
}

func (s *CardService) compose(student *models.Student, role string, expiresAt time.Time, source models.PhotoSource) (*image.NRGBA, error) {
	background, err := s.assets.Image(s.cfg.BackgroundPath)
	if err != nil {
		return nil, err
	}
	content := buildCardContent(student, role, expiresAt)

	photo, err := s.loadPhoto(source)
	if err != nil {
		return nil, err
	}
	photo = imaging.Fill(photo, cardPhotoWidth, cardPhotoHeight, imaging.Center, imaging.Lanczos)
	if s.cfg.RoundedPhoto {
		photo = render.ApplyMask(photo, render.RoundedMask(cardPhotoWidth, cardPhotoHeight, cardPhotoRadius))
	}
	canvas := imaging.Overlay(background, photo, cardPhotoAt, 1.0)

	for _, text := range content.Texts {
		fontPath := s.cfg.RegularFontPath
		if text.Bold {
			fontPath = s.cfg.BoldFontPath
		}
		face, err := s.assets.Face(fontPath, text.Size)
		if err != nil {
			return nil, err
		}
		render.DrawText(canvas, face, text.At.X, text.At.Y, text.Color, text.Text)
		_ = face.Close()
	}

	qr, err := render.EncodeQR(content.QRPayload, cardQRSize)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(canvas, qr, cardQRAt, 1.0), nil
}

// loadPhoto decodes the supplied photo. Missing or unreadable sources fall
// back to the default photo; bytes that cannot be decoded are an error.
func (s *CardService) loadPhoto(source models.PhotoSource) (image.Image, error) {
	data := source.Data
	if len(data) == 0 && source.Path != "" {
		raw, err := os.ReadFile(source.Path)
		if err != nil {
			s.logger.Info("photo unreadable, using default", zap.String("path", source.Path), zap.Error(err))
		}
		data = raw
	}
	if len(data) == 0 {
		return s.defaults.Photo()
	}
	return render.DecodePhoto(data)
}

// Latest returns the most recently issued card.
func (s *CardService) Latest(ctx context.Context, cedula string) (*models.IssuedCard, error) {
	card, err := s.cards.Latest(ctx, cedula)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no card issued for this cedula")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load card")
	}
	return card, nil
}

// History lists issued cards newest first.
func (s *CardService) History(ctx context.Context, cedula string) ([]models.IssuedCard, error) {
	cards, err := s.cards.ListByCedula(ctx, cedula)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cards")
	}
	return cards, nil
}

// HistoryCSV renders the card history as CSV.
func (s *CardService) HistoryCSV(ctx context.Context, cedula string) ([]byte, error) {
	cards, err := s.History(ctx, cedula)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"id", "cedula", "fecha_emision", "fecha_vencimiento", "imagen"}}
	for _, c := range cards {
		data.Rows = append(data.Rows, []string{
			c.ID,
			c.Cedula,
			c.IssuedAt.Format(time.RFC3339),
			c.ExpiresAt.Format(time.RFC3339),
			filepath.Base(c.ImagePath),
		})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export cards")
	}
	return out, nil
}

// Get returns a card by id.
func (s *CardService) Get(ctx context.Context, id string) (*models.IssuedCard, error) {
	card, err := s.cards.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "card not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load card")
	}
	return card, nil
}

// Image returns the PNG bytes currently stored for card.
func (s *CardService) Image(card *models.IssuedCard) ([]byte, error) {
	data, err := s.store.ReadFile(card.ImagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "card image not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read card image")
	}
	return data, nil
}

// Validity reports whether the latest card is still within its validity window.
func (s *CardService) Validity(ctx context.Context, cedula string, now time.Time) (*models.CardValidity, error) {
	card, err := s.Latest(ctx, cedula)
	if err != nil {
		return nil, err
	}
	elapsed := monthsBetween(card.IssuedAt, now)
	result := &models.CardValidity{
		Cedula:        card.Cedula,
		IssuedAt:      card.IssuedAt,
		ExpiresAt:     card.ExpiresAt,
		MonthsElapsed: elapsed,
		Valid:         elapsed < s.cfg.ValidityMonths && now.Before(card.ExpiresAt),
	}
	if result.Valid {
		result.MonthsRemaining = s.cfg.ValidityMonths - elapsed
		result.Message = fmt.Sprintf("Carnet vigente hasta %s", card.ExpiresAt.Format(cardExpiryLayout))
	} else {
		result.Message = fmt.Sprintf("Carnet vencido desde %s", card.ExpiresAt.Format(cardExpiryLayout))
	}
	return result, nil
}

// monthsBetween counts whole calendar months from from to to.
func monthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	to = to.In(from.Location())
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// PrintSheet places the latest card, and the back template when configured,
// on a Letter page.
func (s *CardService) PrintSheet(ctx context.Context, cedula string, mode export.SheetMode) (out []byte, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRender(ArtifactPrintSheet, err, time.Since(start)) }()

	card, err := s.Latest(ctx, cedula)
	if err != nil {
		return nil, err
	}
	front, err := s.Image(card)
	if err != nil {
		return nil, err
	}

	var back []byte
	if s.cfg.BackPath != "" {
		if img, loadErr := s.assets.Image(s.cfg.BackPath); loadErr != nil {
			s.logger.Warn("card back skipped", zap.String("path", s.cfg.BackPath), zap.Error(loadErr))
		} else {
			buf := &bytes.Buffer{}
			if encErr := imaging.Encode(buf, img, imaging.PNG); encErr != nil {
				s.logger.Warn("card back skipped", zap.Error(encErr))
			} else {
				back = buf.Bytes()
			}
		}
	}

	out, err = s.sheet.Render(front, back, mode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render print sheet")
	}
	return out, nil
}

// ShareLink signs a link to the card image.
func (s *CardService) ShareLink(card *models.IssuedCard) (*models.CardShareLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "card sharing is disabled")
	}
	token, expiresAt, err := s.signer.Generate(card.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign share link")
	}
	return &models.CardShareLink{CardID: card.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// Shared resolves a share token to the card and its image.
func (s *CardService) Shared(ctx context.Context, token string) (*models.IssuedCard, []byte, error) {
	if s.signer == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "card sharing is disabled")
	}
	id, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired share link")
	}
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.Image(card)
	if err != nil {
		return nil, nil, err
	}
	return card, data, nil
}
