package models

import "strings"

// Student is a row of the ESTUDIANTES table. Records are read-only snapshots.
type Student struct {
	Cedula   string `db:"cedula" json:"cedula"`
	Nombre   string `db:"nombre" json:"nombre"`
	Apellido string `db:"apellido" json:"apellido"`
	Carrera  string `db:"carrera" json:"carrera"`
	Seccion  string `db:"seccion" json:"seccion"`
	Turno    string `db:"turno" json:"turno"`
	Periodo  string `db:"periodo" json:"periodo"`
	Nucleo   string `db:"nucleo" json:"nucleo"`
}

// FullName joins given name and surname.
func (s Student) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.Nombre) + " " + strings.TrimSpace(s.Apellido))
}

// StudentProfile is returned by the profile endpoint.
type StudentProfile struct {
	Student
	Rol string `json:"rol"`
}
