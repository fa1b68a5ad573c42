package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unexca/student-docs-api/internal/middleware"
	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
	"github.com/unexca/student-docs-api/pkg/export"
	"github.com/unexca/student-docs-api/pkg/storage"
)

type cardServiceMock struct {
	rendered   []string
	photo      models.PhotoSource
	renderErr  error
	cards      []models.IssuedCard
	image      []byte
	printMode  export.SheetMode
	validity   *models.CardValidity
	shareToken string
}

func (m *cardServiceMock) Render(ctx context.Context, cedula string, photo models.PhotoSource) (*models.IssuedCard, error) {
	m.photo = photo
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.rendered = append(m.rendered, cedula)
	return &models.IssuedCard{ID: "card-1", Cedula: cedula}, nil
}

func (m *cardServiceMock) Latest(ctx context.Context, cedula string) (*models.IssuedCard, error) {
	for _, c := range m.cards {
		if c.Cedula == cedula {
			return &c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no card issued for this cedula")
}

func (m *cardServiceMock) History(ctx context.Context, cedula string) ([]models.IssuedCard, error) {
	return m.cards, nil
}

func (m *cardServiceMock) HistoryCSV(ctx context.Context, cedula string) ([]byte, error) {
	return []byte("id,cedula\ncard-1," + cedula + "\n"), nil
}

func (m *cardServiceMock) Get(ctx context.Context, id string) (*models.IssuedCard, error) {
	for _, c := range m.cards {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "card not found")
}

func (m *cardServiceMock) Image(card *models.IssuedCard) ([]byte, error) {
	return m.image, nil
}

func (m *cardServiceMock) Validity(ctx context.Context, cedula string, now time.Time) (*models.CardValidity, error) {
	return m.validity, nil
}

func (m *cardServiceMock) PrintSheet(ctx context.Context, cedula string, mode export.SheetMode) ([]byte, error) {
	m.printMode = mode
	return []byte("%PDF-1.3"), nil
}

func (m *cardServiceMock) ShareLink(card *models.IssuedCard) (*models.CardShareLink, error) {
	if m.shareToken == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "card sharing is disabled")
	}
	return &models.CardShareLink{CardID: card.ID, Token: m.shareToken}, nil
}

func (m *cardServiceMock) Shared(ctx context.Context, token string) (*models.IssuedCard, []byte, error) {
	if token != m.shareToken {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired share link")
	}
	return &m.cards[0], m.image, nil
}

type certificateServiceMock struct {
	got models.CertificateRequest
	err error
}

func (m *certificateServiceMock) Render(ctx context.Context, req models.CertificateRequest) ([]byte, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return []byte("%PDF-1.3 certificate"), nil
}

type authServiceMock struct{}

func (authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "good", ExpiresIn: 86400, Rol: models.RoleStudent}, nil
}

func (authServiceMock) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "student":
		return &models.JWTClaims{Cedula: "V12345678", Rol: models.RoleStudent}, nil
	case "admin":
		return &models.JWTClaims{Cedula: "A1", Rol: models.RoleAdmin}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type profileServiceMock struct{}

func (profileServiceMock) Profile(ctx context.Context, cedula string) (*models.StudentProfile, error) {
	return &models.StudentProfile{Student: models.Student{Cedula: cedula, Nombre: "Ana"}, Rol: "ESTUDIANTE"}, nil
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(ctx context.Context) error { return p.err }

type testServer struct {
	router *gin.Engine
	cards  *cardServiceMock
	certs  *certificateServiceMock
	upload string
}

func newTestServer(t *testing.T, checks map[string]Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploadDir := t.TempDir()
	uploads, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	cards := &cardServiceMock{
		cards: []models.IssuedCard{
			{ID: "card-1", Cedula: "V12345678"},
			{ID: "card-2", Cedula: "V999"},
		},
		image:      []byte("\x89PNG fake"),
		validity:   &models.CardValidity{Cedula: "V12345678", Valid: true, MonthsRemaining: 6},
		shareToken: "tok",
	}
	certs := &certificateServiceMock{}
	r := gin.New()
	Register(r, "/api/v1", Routes{
		Auth:        NewAuthHandler(authServiceMock{}, profileServiceMock{}),
		Certificate: NewCertificateHandler(certs),
		Card:        NewCardHandler(cards, uploads, 64, "/api/v1/carnet/shared", nil),
		Metrics:     NewMetricsHandler(nil, checks),
		Tokens:      authServiceMock{},
	})
	return &testServer{router: r, cards: cards, certs: certs, upload: uploadDir}
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func multipartPhoto(t *testing.T, cedula, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("cedula", cedula))
	if filename != "" {
		part, err := writer.CreateFormFile("foto", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carnet/generate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestLoginAndProfile(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"cedula":"V12345678","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w.Body)["data"].(map[string]interface{})
	assert.Equal(t, "good", data["access_token"])

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"cedula":"V12345678","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, s.do(req, "").Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{`))
	assert.Equal(t, http.StatusBadRequest, s.do(req, "").Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeEnvelope(t, w.Body)["data"].(map[string]interface{})
	assert.Equal(t, "V12345678", data["cedula"])
	assert.Equal(t, "ESTUDIANTE", data["rol"])

	assert.Equal(t, http.StatusUnauthorized, s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil), "").Code)
}

func TestCertificateGenerate(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/constancy/generate", strings.NewReader(`{"nombre":"Ana","cedula":"V12345678"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `constancia_V12345678.pdf`)
	assert.Equal(t, "Ana", s.certs.got.Nombre)

	s.certs.err = appErrors.MissingField("apellido")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/constancy/generate", strings.NewReader(`{"nombre":"Ana"}`))
	w = s.do(req, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeEnvelope(t, w.Body)["error"].(map[string]interface{})
	assert.Equal(t, "apellido", errBody["field"])
}

func TestCardGenerateStoresUploadAndReturnsShareLink(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(multipartPhoto(t, "V12345678", "mi foto.JPG", []byte("jpeg bytes")), "student")
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w.Body)["data"].(map[string]interface{})
	assert.Equal(t, "card-1", data["id"])
	share := data["share"].(map[string]interface{})
	assert.Equal(t, "/api/v1/carnet/shared/tok", share["url"])

	assert.Equal(t, []string{"V12345678"}, s.cards.rendered)
	assert.True(t, strings.HasSuffix(s.cards.photo.Path, "V12345678_mi_foto.JPG"))
	assert.FileExists(t, s.cards.photo.Path)
}

func TestCardGenerateWithoutPhoto(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(multipartPhoto(t, "V12345678", "", nil), "student")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, s.cards.photo.Empty())
}

func TestCardGenerateRejectsBadUploads(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(multipartPhoto(t, "V12345678", "foto.gif", []byte("GIF89a")), "student")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(multipartPhoto(t, "V12345678", "foto.png", bytes.Repeat([]byte{1}, 65)), "student")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = s.do(multipartPhoto(t, "V999", "foto.png", []byte("x")), "student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(multipartPhoto(t, "", "foto.png", []byte("x")), "student")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(multipartPhoto(t, "V12345678", "foto.png", []byte("x")), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, s.cards.rendered)
}

func TestCardGenerateMapsServiceErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.cards.renderErr = appErrors.AssetMissing("assets/card/carnet.png", io.EOF)
	w := s.do(multipartPhoto(t, "V12345678", "", nil), "admin")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := decodeEnvelope(t, w.Body)["error"].(map[string]interface{})
	assert.Equal(t, "ASSET_MISSING", errBody["code"])
}

func TestCardGenerateDiscardsUploadWhenRenderFails(t *testing.T) {
	s := newTestServer(t, nil)
	s.cards.renderErr = appErrors.Clone(appErrors.ErrNotFound, "student not found")

	w := s.do(multipartPhoto(t, "V12345678", "foto.png", []byte("png bytes")), "student")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotEmpty(t, s.cards.photo.Path)
	assert.NoFileExists(t, s.cards.photo.Path)

	entries, err := os.ReadDir(s.upload)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCardDownloadListValidityPrint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/download/V12345678", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "V12345678.png")

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/download/V999", nil), "student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/download/V0", nil), "admin")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/list/V12345678", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.Equal(t, float64(2), env["meta"].(map[string]interface{})["total"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/list/V12345678?format=csv", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/list/V12345678?format=xml", nil), "student")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/validity/V12345678", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w.Body)["data"].(map[string]interface{})
	assert.Equal(t, true, data["vigente"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/print/V12345678?mode=vertical", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.SheetVertical, s.cards.printMode)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/print/V12345678?mode=diagonal", nil), "student")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardImageAndSharedLink(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/image/card-1", nil), "student")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/image/card-2", nil), "student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/shared/tok", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "\x89PNG fake", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/carnet/shared/forged", nil), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProbes(t *testing.T) {
	s := newTestServer(t, map[string]Pinger{"database": failingPinger{}})
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "").Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/ready", nil), "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "").Code)

	s = newTestServer(t, map[string]Pinger{"database": failingPinger{err: io.ErrUnexpectedEOF}})
	w := s.do(httptest.NewRequest(http.MethodGet, "/ready", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unexpected EOF")
}

func TestUploadName(t *testing.T) {
	assert.Equal(t, "V1_foto.png", uploadName("V1", "../../foto.png"))
	assert.Equal(t, "V1_mi_foto_.jpg", uploadName("V1", "mi foto?.jpg"))
	assert.Equal(t, "V1_foto", uploadName("V1", "..."))
}

var _ middleware.TokenValidator = authServiceMock{}
