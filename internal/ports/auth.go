// Package ports defines the interfaces (hexagonal ports) the identity services depend on.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes a sign-in against an external identity provider.
type AuthProvider interface {
	// Name is the provider key stored in accounts.provider.
	Name() string

	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the external profile.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Profile, error)
}

// RoleMapper maps provider groups to the role given to a newly created user.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// SignInEmail is a magic-link message.
type SignInEmail struct {
	To      string
	URL     string
	Expires time.Time
}

// Mailer delivers sign-in links.
type Mailer interface {
	SendSignIn(ctx context.Context, msg SignInEmail) error
}

// SignInThrottle bounds sign-in attempts per key (an email or a client address).
type SignInThrottle interface {
	// Allow records one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
}
