package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithProfileAndFromContext(t *testing.T) {
	p := Profile{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"}

	ctx := WithProfile(context.Background(), p)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected profile in context")
	}
	if got.ID != "u1" || got.DisplayName != "Ada" {
		t.Fatalf("profile = %+v", got)
	}
	if UserID(ctx) != "u1" {
		t.Fatalf("UserID = %q", UserID(ctx))
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no profile")
	}
	if UserID(context.Background()) != "" {
		t.Fatal("expected empty user ID")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"valid", "Bearer abc123", "abc123", nil},
		{"missing header", "", "", ErrMissingToken},
		{"wrong scheme", "Basic abc123", "", ErrInvalidToken},
		{"empty token", "Bearer   ", "", ErrMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := bearerToken(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator()

	r := httptest.NewRequest("GET", "/", nil)
	p, err := a.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != DefaultStaticUser {
		t.Fatalf("ID = %q, want %q", p.ID, DefaultStaticUser)
	}

	r.Header.Set("X-User-ID", "alice")
	p, err = a.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != "alice" {
		t.Fatalf("ID = %q, want alice", p.ID)
	}
}

func TestClassifyValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"expired", errors.New("idtoken: token expired"), ErrExpiredToken},
		{"audience", errors.New("idtoken: audience provided does not match aud claim"), ErrAudienceMismatch},
		{"other", errors.New("idtoken: could not parse"), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyValidationError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("classified as %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(ErrExpiredToken); !strings.Contains(msg, "expired") {
		t.Fatalf("expired copy = %q", msg)
	}
	if msg := UserMessage(ErrAudienceMismatch); !strings.Contains(msg, "client ID") {
		t.Fatalf("audience copy = %q", msg)
	}
	if msg := UserMessage(errors.New("boom")); msg != "Failed to sign in. Please try again." {
		t.Fatalf("default copy = %q", msg)
	}
}
