package service

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/unexca/student-docs-api/internal/models"
)

// Card geometry in template pixels.
const (
	cardPhotoWidth  = 230
	cardPhotoHeight = 260
	cardPhotoRadius = 24
	cardQRSize      = 180

	cardExpiryLayout = "02/01/2006"
)

var (
	cardPhotoAt = image.Pt(180, 324)
	cardQRAt    = image.Pt(380, 780)

	cardBlue  = color.RGBA{R: 7, G: 41, B: 115, A: 255}
	cardWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	cardBlack = color.RGBA{A: 255}
)

// cardText is one string placed on the card.
type cardText struct {
	Name  string
	Text  string
	At    image.Point
	Bold  bool
	Size  float64
	Color color.RGBA
}

// cardContent is everything drawn on a card apart from the photo.
type cardContent struct {
	Texts     []cardText
	QRPayload string
}

var upperES = cases.Upper(language.Spanish)

func buildCardContent(student *models.Student, role string, expiresAt time.Time) cardContent {
	expiry := expiresAt.Format(cardExpiryLayout)
	return cardContent{
		Texts: []cardText{
			{Name: "nombre", Text: upperES.String(student.FullName()), At: image.Pt(200, 600), Bold: true, Size: 30, Color: cardBlue},
			{Name: "cedula", Text: "C.I: " + student.Cedula, At: image.Pt(200, 640), Size: 25, Color: cardBlue},
			{Name: "carrera", Text: upperES.String(strings.TrimSpace(student.Carrera)), At: image.Pt(200, 670), Bold: true, Size: 26, Color: cardBlue},
			{Name: "rol", Text: upperES.String(role), At: image.Pt(140, 920), Bold: true, Size: 50, Color: cardWhite},
			{Name: "vence", Text: "Vence: " + expiry, At: image.Pt(30, 870), Size: 22, Color: cardBlack},
		},
		QRPayload: qrPayload(student, role, expiry),
	}
}

func qrPayload(student *models.Student, role, expiry string) string {
	return fmt.Sprintf("NOMBRE: %s\nAPELLIDO: %s\nCEDULA: %s\nCARRERA: %s\nROL: %s\nVENCE: %s",
		strings.TrimSpace(student.Nombre),
		strings.TrimSpace(student.Apellido),
		student.Cedula,
		strings.TrimSpace(student.Carrera),
		role,
		expiry,
	)
}
