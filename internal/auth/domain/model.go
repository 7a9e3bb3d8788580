package domain

import (
	"errors"
	"fmt"
	"time"

	projects "github.com/arqmanager/portfolio-web/internal/projects/domain"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidGoogleToken = errors.New("invalid google token")
)

// Provider records how a session was established.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
)

// SessionRecord is what the session store persists for a session ID. The
// backend token never leaves the server.
type SessionRecord struct {
	ID        string        `json:"id"`
	Token     string        `json:"token"`
	User      projects.User `json:"user"`
	Provider  Provider      `json:"provider"`
	CreatedAt time.Time     `json:"created_at"`
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the email/password sign-in payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the Google ID token obtained by the browser
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// ValidationError lists the rejected sign-up fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid registration: %d field(s)", len(e.Fields))
}
