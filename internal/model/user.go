package model

import (
	"time"

	"github.com/google/uuid"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User role constants. Assistants are the caretakers assigned to patients and
// the default notification recipients; the admin is the secondary recipient.
const (
	RoleAdmin     = "admin"
	RoleVet       = "vet"
	RoleAssistant = "assistant"
)

type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        string     `json:"phone" db:"phone"`
	Role         string     `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	PasswordHash string     `json:"-" db:"password_hash"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
	Role     string `json:"role" binding:"required,oneof=admin vet assistant"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
