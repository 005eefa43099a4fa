package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	// ProviderName is stored in accounts.provider for identities from this IdP.
	ProviderName string `env:"PROVIDER_NAME" envDefault:"google"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL" envDefault:"https://accounts.google.com/.well-known/openid-configuration"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Subject string   `env:"SUBJECT" envDefault:"dev-user"`
	Email   string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Name    string   `env:"NAME"    envDefault:"Dev User"`
	Groups  []string `env:"GROUPS"  envDefault:"admins"          envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Provider groups mapped to the initial role of a newly created user.
	// Empty disables that mapping; users without a match start as viewers.
	AdminGroup  string `env:"ADMIN_GROUP"`
	EditorGroup string `env:"EDITOR_GROUP"`
	AuthorGroup string `env:"AUTHOR_GROUP"`

	// SessionMaxAge is how long an idle session stays valid.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// SessionUpdateAge throttles sliding-expiry writes: a session is extended at most once per window.
	SessionUpdateAge time.Duration `env:"SESSION_UPDATE_AGE" envDefault:"24h"`

	// VerificationTTL bounds how long an emailed sign-in link stays usable.
	VerificationTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`

	// Secret is mixed into verification token hashes before storage.
	Secret string `env:"AUTH_SECRET"`

	// EmailSignInLimit caps sign-in emails per address within EmailSignInWindow. Zero disables it.
	EmailSignInLimit  int           `env:"SIGNIN_EMAIL_LIMIT"  envDefault:"5"`
	EmailSignInWindow time.Duration `env:"SIGNIN_EMAIL_WINDOW" envDefault:"15m"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionMaxAge < time.Minute {
		a.SessionMaxAge = time.Minute
	}
	if a.SessionUpdateAge < 0 {
		a.SessionUpdateAge = 0
	}
	if a.SessionUpdateAge > a.SessionMaxAge {
		a.SessionUpdateAge = a.SessionMaxAge
	}
	if a.VerificationTTL < time.Minute {
		a.VerificationTTL = time.Minute
	}
	if a.EmailSignInLimit < 0 {
		a.EmailSignInLimit = 0
	}
	if a.EmailSignInWindow < time.Second {
		a.EmailSignInWindow = time.Second
	}
}

// Validate checks values that cannot be defaulted.
func (a *AuthConfig) Validate(isDev bool) error {
	var errs []error
	if a.Mode == AuthModeMock && !isDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed in development"))
	}
	if a.Mode == AuthModeOAuth && (a.OAuth.ClientID == "" || a.OAuth.ClientSecret == "") {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required when AUTH_MODE=oauth"))
	}
	if a.Secret == "" && !isDev {
		errs = append(errs, errors.New("AUTH_SECRET is required"))
	}
	return errors.Join(errs...)
}
