package model

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
	Surname  string `json:"surname" binding:"max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenClaims is the decoded content of an access token.
type TokenClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// Session is the current authenticated state of a caller.
type Session struct {
	Claims *TokenClaims `json:"claims"`
	User   *User        `json:"user"`
}

// Actor identifies the caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// Actor returns the caller described by the claims.
func (c *TokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// IsStaff reports whether the caller works at the clinic.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}
