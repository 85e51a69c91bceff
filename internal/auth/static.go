package auth

import "net/http"

// DefaultStaticUser is the identity used when no header is sent.
const DefaultStaticUser = "dev"

// userIDHeader overrides the static identity per request.
const userIDHeader = "X-User-ID"

// StaticAuthenticator trusts a request header for identity. Local
// development only; never expose it to real traffic.
type StaticAuthenticator struct{}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{}
}

func (s *StaticAuthenticator) Authenticate(r *http.Request) (Profile, error) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		id = DefaultStaticUser
	}
	return Profile{
		ID:          id,
		DisplayName: "Dev User",
		Email:       id + "@localhost",
	}, nil
}
