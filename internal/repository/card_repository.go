package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unexca/student-docs-api/internal/models"
)

// CardRepository manages the append-only carnets history.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository constructs a CardRepository.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, cedula, fecha_emision, fecha_vencimiento, ruta_imagen`

// Create inserts card inside a transaction and runs publish before committing.
// When publish fails the row is rolled back.
func (r *CardRepository) Create(ctx context.Context, card *models.IssuedCard, publish func() error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin carnet transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO carnets (` + cardColumns + `) VALUES (:id, :cedula, :fecha_emision, :fecha_vencimiento, :ruta_imagen)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, card); err != nil {
		return fmt.Errorf("insert carnet: %w", err)
	}

	if publish != nil {
		if err = publish(); err != nil {
			return fmt.Errorf("publish carnet image: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit carnet: %w", err)
	}
	return nil
}

// Latest returns the most recently issued card for cedula or sql.ErrNoRows.
func (r *CardRepository) Latest(ctx context.Context, cedula string) (*models.IssuedCard, error) {
	query := `SELECT ` + cardColumns + ` FROM carnets WHERE cedula = $1 ORDER BY fecha_emision DESC LIMIT 1`
	var card models.IssuedCard
	if err := r.db.GetContext(ctx, &card, query, cedula); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListByCedula returns the card history for cedula, newest first.
func (r *CardRepository) ListByCedula(ctx context.Context, cedula string) ([]models.IssuedCard, error) {
	query := `SELECT ` + cardColumns + ` FROM carnets WHERE cedula = $1 ORDER BY fecha_emision DESC`
	cards := make([]models.IssuedCard, 0)
	if err := r.db.SelectContext(ctx, &cards, query, cedula); err != nil {
		return nil, fmt.Errorf("list carnets: %w", err)
	}
	return cards, nil
}

// FindByID returns a single card or sql.ErrNoRows.
func (r *CardRepository) FindByID(ctx context.Context, id string) (*models.IssuedCard, error) {
	query := `SELECT ` + cardColumns + ` FROM carnets WHERE id = $1`
	var card models.IssuedCard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, err
	}
	return &card, nil
}
