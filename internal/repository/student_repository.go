package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unexca/student-docs-api/internal/models"
)

// StudentRepository reads student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByCedula returns the student with the given identity number. A missing
// row surfaces as sql.ErrNoRows.
func (r *StudentRepository) FindByCedula(ctx context.Context, cedula string) (*models.Student, error) {
	const query = `SELECT cedula, nombre, apellido,
        COALESCE(carrera, '') AS carrera, COALESCE(seccion, '') AS seccion, COALESCE(turno, '') AS turno,
        COALESCE(periodo, '') AS periodo, COALESCE(nucleo, '') AS nucleo
        FROM ESTUDIANTES WHERE cedula = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, cedula); err != nil {
		return nil, err
	}
	return &student, nil
}

// Ping checks connectivity for readiness probes.
func (r *StudentRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
