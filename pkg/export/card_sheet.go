package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// SheetMode selects how the front and back of a card are arranged on the page.
type SheetMode string

const (
	SheetHorizontal SheetMode = "horizontal"
	SheetVertical   SheetMode = "vertical"
)

// Printed card size in points.
const (
	CardSheetWidth  = 148.0
	CardSheetHeight = 251.0

	sheetMargin = 50.0
	sheetGapX   = 20.0
	sheetGapY   = 30.0
)

// ParseSheetMode validates a mode string. Empty means horizontal.
func ParseSheetMode(raw string) (SheetMode, error) {
	switch SheetMode(raw) {
	case "", SheetHorizontal:
		return SheetHorizontal, nil
	case SheetVertical:
		return SheetVertical, nil
	default:
		return "", fmt.Errorf("unknown print mode %q", raw)
	}
}

// CardSheetPDF places card faces on a Letter page for printing.
type CardSheetPDF struct{}

// NewCardSheetPDF constructs a print sheet renderer.
func NewCardSheetPDF() *CardSheetPDF {
	return &CardSheetPDF{}
}

// Render draws front and, when present, back PNG images at card size.
func (e *CardSheetPDF) Render(front, back []byte, mode SheetMode) ([]byte, error) {
	if len(front) == 0 {
		return nil, fmt.Errorf("card front image required")
	}
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	frontX, frontY := sheetMargin, sheetMargin
	backX, backY := frontX+CardSheetWidth+sheetGapX, frontY
	if mode == SheetVertical {
		frontX = (pageWidth - CardSheetWidth) / 2
		backX, backY = frontX, frontY+CardSheetHeight+sheetGapY
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("front", opts, bytes.NewReader(front))
	pdf.ImageOptions("front", frontX, frontY, CardSheetWidth, CardSheetHeight, false, opts, 0, "")
	if len(back) > 0 {
		pdf.RegisterImageOptionsReader("back", opts, bytes.NewReader(back))
		pdf.ImageOptions("back", backX, backY, CardSheetWidth, CardSheetHeight, false, opts, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render card sheet: %w", err)
	}
	return buf.Bytes(), nil
}
