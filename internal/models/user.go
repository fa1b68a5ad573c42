package models

// UserRole is the value stored in usuarios.rol.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "ESTUDIANTE"
)

// User is a row of the usuarios table.
type User struct {
	ID           int64    `db:"id" json:"id"`
	Cedula       string   `db:"cedula" json:"cedula"`
	PasswordHash string   `db:"contrasena" json:"-"`
	Role         UserRole `db:"rol" json:"rol"`
}
