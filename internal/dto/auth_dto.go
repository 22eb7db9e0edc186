package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/auth"
)

// LoginRequest carries the credentials exchanged for a token.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse returns the issued token and the identity it carries.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      auth.Identity `json:"user"`
}
