package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Cedula   string `json:"cedula" validate:"required,max=20"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Rol         UserRole  `json:"rol"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims is the access token payload. The subject is the cedula.
type JWTClaims struct {
	Cedula string   `json:"cedula"`
	Rol    UserRole `json:"rol"`
	jwt.RegisteredClaims
}
