package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// CertificatePDF lays out a CertificateTemplate on a single page.
type CertificatePDF struct {
	assetsDir string
	logger    *zap.Logger
}

// NewCertificatePDF constructs a renderer resolving logo paths against assetsDir.
func NewCertificatePDF(assetsDir string, logger *zap.Logger) *CertificatePDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificatePDF{assetsDir: assetsDir, logger: logger}
}

// Render draws the template with fields substituted into the body and returns
// the finished document. fields values must already be validated.
func (r *CertificatePDF) Render(tpl CertificateTemplate, fields map[string]string, issuedAt time.Time) ([]byte, error) {
	pageSize := tpl.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	pdf := gofpdf.New("P", "mm", pageSize, "")
	pdf.SetCompression(tpl.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(issuedAt)
	pdf.SetTitle(tpl.Name, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	family := tpl.FontFamily
	if family == "" {
		family = "Times"
	}

	for _, logo := range tpl.Logos {
		r.drawLogo(pdf, logo)
	}

	pdf.SetTextColor(0, 0, 0)
	r.drawCentered(pdf, tr, family, tpl.Header, pageWidth)
	r.drawCentered(pdf, tr, family, tpl.Title, pageWidth)

	width := pageWidth - tpl.MarginLeft - tpl.MarginRight
	body := paragraph{pdf: pdf, family: family, size: tpl.Body.FontSize, lineHeight: tpl.Body.LineHeight}
	text := tr(fillPlaceholders(tpl.Body.Text, fields))
	last := body.Draw(splitEmphasis(text), tpl.MarginLeft, tpl.Body.Y, width)

	if tpl.Date.Sentence != "" {
		y := tpl.Date.Y
		if y == 0 {
			y = last + tpl.Body.LineHeight + tpl.Date.Gap
		}
		date := monday.Format(issuedAt, tpl.Date.Layout, monday.Locale(tpl.Date.Locale))
		sentence := paragraph{pdf: pdf, family: family, size: tpl.Date.FontSize, lineHeight: tpl.Body.LineHeight}
		sentence.Draw(splitEmphasis(tr(fmt.Sprintf(tpl.Date.Sentence, date))), tpl.MarginLeft, y, width)
	}

	r.drawCentered(pdf, tr, family, tpl.Closing, pageWidth)
	r.drawSignature(pdf, tr, family, tpl.Signature, pageWidth)
	r.drawCentered(pdf, tr, family, tpl.Footer, pageWidth)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CertificatePDF) drawCentered(pdf *gofpdf.Fpdf, tr func(string) string, family string, block LinesBlock, pageWidth float64) {
	if len(block.Lines) == 0 {
		return
	}
	style := ""
	if block.Bold {
		style = "B"
	}
	pdf.SetFont(family, style, block.FontSize)
	y := block.Y
	for _, line := range block.Lines {
		text := tr(line)
		pdf.Text((pageWidth-pdf.GetStringWidth(text))/2, y, text)
		y += block.LineHeight
	}
}

func (r *CertificatePDF) drawSignature(pdf *gofpdf.Fpdf, tr func(string) string, family string, sig SignatureBlock, pageWidth float64) {
	if sig.RuleLength > 0 {
		x := (pageWidth - sig.RuleLength) / 2
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Line(x, sig.RuleY, x+sig.RuleLength, sig.RuleY)
	}
	r.drawCentered(pdf, tr, family, LinesBlock{
		Lines:      sig.Lines,
		Y:          sig.RuleY + sig.LineHeight,
		FontSize:   sig.FontSize,
		LineHeight: sig.LineHeight,
		Bold:       sig.Bold,
	}, pageWidth)
}

// drawLogo places an optional image. Failures are logged and skipped.
func (r *CertificatePDF) drawLogo(pdf *gofpdf.Fpdf, logo Logo) {
	path := logo.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.assetsDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("certificate logo skipped", zap.String("path", path), zap.Error(err))
		return
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		r.logger.Warn("certificate logo skipped", zap.String("path", path), zap.Error(err))
		return
	}

	opts := gofpdf.ImageOptions{ImageType: strings.ToUpper(format)}
	if format == "jpeg" {
		opts.ImageType = "JPG"
	}
	pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
	if pdf.Err() {
		r.logger.Warn("certificate logo skipped", zap.String("path", path), zap.Error(pdf.Error()))
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(path, logo.X, logo.Y, logo.Width, logo.Height, false, opts, 0, "")
}

// fillPlaceholders substitutes {name} with the field value. Emphasis markers
// inside values are dropped so they cannot change the layout.
func fillPlaceholders(text string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for name, value := range fields {
		pairs = append(pairs, "{"+name+"}", strings.ReplaceAll(value, "*", ""))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
