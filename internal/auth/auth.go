// Package auth verifies who is making a request. Two backends: Google
// federated sign-in via ID token verification, and a static header
// identity for local development.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Profile identifies the signed-in user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
}

// Authenticator resolves the identity behind an HTTP request.
type Authenticator interface {
	Authenticate(r *http.Request) (Profile, error)
}

var (
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("expired authentication token")
	ErrAudienceMismatch = errors.New("token issued for a different client")
)

// UserMessage maps a verification failure to copy safe to show the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Sign-in required."
	case errors.Is(err, ErrExpiredToken):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrAudienceMismatch):
		return "This sign-in was issued for a different application. Check the configured client ID."
	default:
		return "Failed to sign in. Please try again."
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
