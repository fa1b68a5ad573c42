package export

import (
	"fmt"

	"github.com/spf13/viper"
)

// CertificateTemplate describes a one page certificate. Coordinates are in
// millimetres from the top-left corner of the page.
type CertificateTemplate struct {
	Name        string         `mapstructure:"name"`
	PageSize    string         `mapstructure:"page_size"`
	FontFamily  string         `mapstructure:"font_family"`
	MarginLeft  float64        `mapstructure:"margin_left"`
	MarginRight float64        `mapstructure:"margin_right"`
	Compress    bool           `mapstructure:"compress"`
	Header      LinesBlock     `mapstructure:"header"`
	Title       LinesBlock     `mapstructure:"title"`
	Body        ParagraphBlock `mapstructure:"body"`
	Date        DateBlock      `mapstructure:"date"`
	Closing     LinesBlock     `mapstructure:"closing"`
	Signature   SignatureBlock `mapstructure:"signature"`
	Footer      LinesBlock     `mapstructure:"footer"`
	Logos       []Logo         `mapstructure:"logos"`
}

// LinesBlock is a stack of horizontally centered lines.
type LinesBlock struct {
	Lines      []string `mapstructure:"lines"`
	Y          float64  `mapstructure:"y"`
	FontSize   float64  `mapstructure:"font_size"`
	LineHeight float64  `mapstructure:"line_height"`
	Bold       bool     `mapstructure:"bold"`
}

// ParagraphBlock is justified text. {field} placeholders are replaced with
// field values and **text** is set in bold.
type ParagraphBlock struct {
	Text       string  `mapstructure:"text"`
	Y          float64 `mapstructure:"y"`
	FontSize   float64 `mapstructure:"font_size"`
	LineHeight float64 `mapstructure:"line_height"`
}

// DateBlock renders Sentence with the issue date formatted by Layout in Locale.
// A zero Y places it Gap millimetres under the body paragraph.
type DateBlock struct {
	Sentence string  `mapstructure:"sentence"`
	Layout   string  `mapstructure:"layout"`
	Locale   string  `mapstructure:"locale"`
	Y        float64 `mapstructure:"y"`
	Gap      float64 `mapstructure:"gap"`
	FontSize float64 `mapstructure:"font_size"`
}

// SignatureBlock draws a centered rule with centered lines beneath it.
type SignatureBlock struct {
	RuleY      float64  `mapstructure:"rule_y"`
	RuleLength float64  `mapstructure:"rule_length"`
	Lines      []string `mapstructure:"lines"`
	FontSize   float64  `mapstructure:"font_size"`
	LineHeight float64  `mapstructure:"line_height"`
	Bold       bool     `mapstructure:"bold"`
}

// Logo is an optional image. Path is resolved against the assets directory.
type Logo struct {
	Path   string  `mapstructure:"path"`
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// DefaultCertificateTemplate is the current enrollment certificate layout.
func DefaultCertificateTemplate() CertificateTemplate {
	return CertificateTemplate{
		Name:        "constancia",
		PageSize:    "A4",
		FontFamily:  "Times",
		MarginLeft:  20,
		MarginRight: 20,
		Compress:    true,
		Header: LinesBlock{
			Lines: []string{
				"REPÚBLICA BOLIVARIANA DE VENEZUELA",
				"MINISTERIO DEL PODER POPULAR PARA LA EDUCACIÓN UNIVERSITARIA",
				"UNIVERSIDAD NACIONAL EXPERIMENTAL DE LA GRAN CARACAS",
				"COORDINACIÓN DE CONTROL DE ESTUDIOS",
			},
			Y:          62,
			FontSize:   11,
			LineHeight: 5.5,
			Bold:       true,
		},
		Title: LinesBlock{
			Lines:    []string{"CONSTANCIA"},
			Y:        96,
			FontSize: 18,
			Bold:     true,
		},
		Body: ParagraphBlock{
			Text: "Quien suscribe, **Ing. Yovany Díaz, Jefe(E) de la Coordinación de Control de Estudios** " +
				"de la UNIVERSIDAD NACIONAL EXPERIMENTAL DE LA GRAN CARACAS, hace constar por medio de la " +
				"presente que el(la) ciudadano(a) **{nombre} {apellido}**, titular de la cédula de identidad " +
				"N° V-**{cedula}**, es estudiante activo(a) de esta universidad en el núcleo **{nucleo}**, " +
				"actualmente cursa el período académico **{periodo}** del Programa Nacional de Formación en " +
				"**{carrera}**, sección **{seccion}**, turno **{turno}**.",
			Y:          115,
			FontSize:   12,
			LineHeight: 7,
		},
		Date: DateBlock{
			Sentence: "Constancia que se expide a petición de la parte interesada, en Caracas, el día %s.",
			Layout:   "Monday 2 de January de 2006",
			Locale:   "es_ES",
			Gap:      6,
			FontSize: 12,
		},
		Closing: LinesBlock{
			Lines:    []string{"Atentamente,"},
			Y:        200,
			FontSize: 12,
		},
		Signature: SignatureBlock{
			RuleY:      232,
			RuleLength: 65,
			Lines:      []string{"ING. YOVANY DÍAZ", "JEFE(E) COORDINACIÓN DE CONTROL DE ESTUDIOS"},
			FontSize:   11,
			LineHeight: 5.5,
			Bold:       true,
		},
		Footer: LinesBlock{
			Lines: []string{
				"Universidad Nacional Experimental de la Gran Caracas",
				"Coordinación de Control de Estudios",
			},
			Y:          278,
			FontSize:   8,
			LineHeight: 4,
		},
		Logos: []Logo{
			{Path: "membrete.jpg", X: 5, Y: 5, Width: 200, Height: 50},
		},
	}
}

// LoadCertificateTemplate reads a template from a YAML or JSON file. An empty
// path returns the default template. A file replaces the default completely.
func LoadCertificateTemplate(path string) (CertificateTemplate, error) {
	if path == "" {
		return DefaultCertificateTemplate(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("page_size", "A4")
	v.SetDefault("font_family", "Times")
	v.SetDefault("margin_left", 20)
	v.SetDefault("margin_right", 20)
	v.SetDefault("compress", true)
	v.SetDefault("date.locale", "es_ES")
	if err := v.ReadInConfig(); err != nil {
		return CertificateTemplate{}, fmt.Errorf("read certificate template: %w", err)
	}

	var tpl CertificateTemplate
	if err := v.Unmarshal(&tpl); err != nil {
		return CertificateTemplate{}, fmt.Errorf("decode certificate template: %w", err)
	}
	if err := tpl.validate(); err != nil {
		return CertificateTemplate{}, fmt.Errorf("certificate template %s: %w", path, err)
	}
	return tpl, nil
}

func (t CertificateTemplate) validate() error {
	if t.Body.Text == "" {
		return fmt.Errorf("body text is required")
	}
	if t.Body.FontSize <= 0 || t.Body.LineHeight <= 0 {
		return fmt.Errorf("body font_size and line_height must be positive")
	}
	if t.Date.Sentence != "" && t.Date.Layout == "" {
		return fmt.Errorf("date layout is required when a date sentence is set")
	}
	return nil
}
