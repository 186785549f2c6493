package model

import "time"

// Account is a registered user. Email is stored normalized and is unique.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Credentials is the request body for both registration and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPayload is the identity carried inside a session token.
type TokenPayload struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponse is returned after a successful registration or login.
type AuthResponse struct {
	Account AccountResponse `json:"account"`
	Token   string          `json:"token"`
}

// AccountResponse is account data safe for API responses (no password hash).
type AccountResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAccountResponse strips an Account down to its public fields.
func NewAccountResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a single failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
