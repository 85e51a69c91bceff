package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

// GoogleAuthenticator verifies Google ID tokens against the app's OAuth
// client ID.
type GoogleAuthenticator struct {
	validator *idtoken.Validator
	clientID  string
	logger    *log.Logger
}

func NewGoogleAuthenticator(ctx context.Context, clientID string, logger *log.Logger) (*GoogleAuthenticator, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google auth: client ID is required")
	}
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("google auth: creating validator: %w", err)
	}
	return &GoogleAuthenticator{
		validator: validator,
		clientID:  clientID,
		logger:    logger.WithComponent(log.ComponentAuth),
	}, nil
}

func (g *GoogleAuthenticator) Authenticate(r *http.Request) (Profile, error) {
	token, err := bearerToken(r)
	if err != nil {
		return Profile{}, err
	}

	payload, err := g.validator.Validate(r.Context(), token, g.clientID)
	if err != nil {
		classified := classifyValidationError(err)
		g.logger.Warn("token verification failed",
			log.FieldOperation, log.OpVerify,
			log.FieldError, err)
		return Profile{}, classified
	}

	p := Profile{
		ID:          payload.Subject,
		DisplayName: claimString(payload.Claims, "name"),
		Email:       claimString(payload.Claims, "email"),
		PhotoURL:    claimString(payload.Claims, "picture"),
	}
	if p.ID == "" {
		return Profile{}, ErrInvalidToken
	}
	return p, nil
}

// classifyValidationError folds the validator's string errors into our
// sentinels so callers can pick the right user-facing copy.
func classifyValidationError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired"):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case strings.Contains(msg, "audience"):
		return fmt.Errorf("%w: %v", ErrAudienceMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

func claimString(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return v
}
