package models

import "strings"

// CertificateRequest carries the fields interpolated into an enrollment
// certificate. Declaration order is the order fields are reported when missing.
type CertificateRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido" validate:"required"`
	Cedula   string `json:"cedula" validate:"required"`
	Nucleo   string `json:"nucleo" validate:"required"`
	Periodo  string `json:"periodo" validate:"required"`
	Carrera  string `json:"carrera" validate:"required"`
	Seccion  string `json:"seccion" validate:"required"`
	Turno    string `json:"turno" validate:"required"`
}

// Fields returns the request as placeholder values.
func (r CertificateRequest) Fields() map[string]string {
	return map[string]string{
		"nombre":   r.Nombre,
		"apellido": r.Apellido,
		"cedula":   r.Cedula,
		"nucleo":   r.Nucleo,
		"periodo":  r.Periodo,
		"carrera":  r.Carrera,
		"seccion":  r.Seccion,
		"turno":    r.Turno,
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r CertificateRequest) Trimmed() CertificateRequest {
	return CertificateRequest{
		Nombre:   strings.TrimSpace(r.Nombre),
		Apellido: strings.TrimSpace(r.Apellido),
		Cedula:   strings.TrimSpace(r.Cedula),
		Nucleo:   strings.TrimSpace(r.Nucleo),
		Periodo:  strings.TrimSpace(r.Periodo),
		Carrera:  strings.TrimSpace(r.Carrera),
		Seccion:  strings.TrimSpace(r.Seccion),
		Turno:    strings.TrimSpace(r.Turno),
	}
}
