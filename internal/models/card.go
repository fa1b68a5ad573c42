package models

import "time"

// IssuedCard is a row of the carnets table. Rows are append-only.
type IssuedCard struct {
	ID        string    `db:"id" json:"id"`
	Cedula    string    `db:"cedula" json:"cedula"`
	IssuedAt  time.Time `db:"fecha_emision" json:"fecha_emision"`
	ExpiresAt time.Time `db:"fecha_vencimiento" json:"fecha_vencimiento"`
	ImagePath string    `db:"ruta_imagen" json:"ruta_imagen"`
}

// PhotoSource supplies the card photo either as bytes or as a file path.
// The zero value means no photo was provided.
type PhotoSource struct {
	Data []byte
	Path string
}

// Empty reports whether neither bytes nor a path were given.
func (p PhotoSource) Empty() bool {
	return len(p.Data) == 0 && p.Path == ""
}

// CardValidity is the result of checking the latest card of a student.
type CardValidity struct {
	Cedula          string    `json:"cedula"`
	Valid           bool      `json:"vigente"`
	Message         string    `json:"mensaje"`
	IssuedAt        time.Time `json:"fecha_emision"`
	ExpiresAt       time.Time `json:"fecha_vencimiento"`
	MonthsElapsed   int       `json:"meses_transcurridos"`
	MonthsRemaining int       `json:"meses_restantes"`
}

// CardShareLink is a signed, expiring link to a card image.
type CardShareLink struct {
	CardID    string    `json:"card_id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssuedCardResponse is returned after a successful render.
type IssuedCardResponse struct {
	IssuedCard
	Share *CardShareLink `json:"share,omitempty"`
}
