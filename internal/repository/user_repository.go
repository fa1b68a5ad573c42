package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unexca/student-docs-api/internal/models"
)

// UserRepository reads login accounts from usuarios.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByCedula returns the account for cedula or sql.ErrNoRows.
func (r *UserRepository) FindByCedula(ctx context.Context, cedula string) (*models.User, error) {
	const query = `SELECT id, cedula, contrasena, COALESCE(rol, '') AS rol FROM usuarios WHERE cedula = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, cedula); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindRole returns the stored role for cedula or sql.ErrNoRows.
func (r *UserRepository) FindRole(ctx context.Context, cedula string) (string, error) {
	const query = `SELECT COALESCE(rol, '') FROM usuarios WHERE cedula = $1`
	var role string
	if err := r.db.GetContext(ctx, &role, query, cedula); err != nil {
		return "", err
	}
	return role, nil
}
