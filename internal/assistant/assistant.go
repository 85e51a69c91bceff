// Package assistant wraps the language-model backend behind a small
// interface the chat service speaks. The backend returns best-effort
// results; callers fall back to canned replies when it fails.
package assistant

import (
	"context"
	"errors"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
)

// Role values for conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Canned replies used when the backend is unreachable or returns
// something unusable.
const (
	FallbackReply    = "I'm having trouble connecting to the server right now. Please try again."
	FallbackInsights = "I'm having trouble analyzing your data right now. Please try again later."
	NoInsights       = "No insights could be generated."
)

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role    string
	Content string
}

// ParsedPurchase is the structured purchase the model extracted from
// free-form text. Price and Quantity are in display units; normalization
// to cents happens at intake.
type ParsedPurchase struct {
	ItemName   string  `json:"itemName"`
	StoreName  string  `json:"storeName"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Date       string  `json:"date"`
	Confidence float64 `json:"confidence"`
}

// Assistant is the language-model backend.
//
// Parse extracts a purchase from free-form input. A nil ParsedPurchase
// with a nil error means the input was not a purchase; the returned
// message is the model's conversational reply either way.
type Assistant interface {
	Parse(ctx context.Context, input string) (*ParsedPurchase, string, error)
	Reply(ctx context.Context, history []Turn, message string) (string, error)
	Insights(ctx context.Context, purchases []core.Purchase) (string, error)
}

// ErrUnavailable is returned by Unavailable for every operation.
var ErrUnavailable = errors.New("assistant backend not configured")

// Unavailable is the backend used when no API key is configured. Every
// call fails, so the chat service serves its fallback copy.
type Unavailable struct{}

func (Unavailable) Parse(ctx context.Context, input string) (*ParsedPurchase, string, error) {
	return nil, "", ErrUnavailable
}

func (Unavailable) Reply(ctx context.Context, history []Turn, message string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Insights(ctx context.Context, purchases []core.Purchase) (string, error) {
	return "", ErrUnavailable
}
