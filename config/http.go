package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the application (e.g., "https://budgetndiostory.org").
	// Used for building absolute links in sign-in emails.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// SignInPath is where guarded pages send clients without a session.
	SignInPath string `env:"HTTP_SIGNIN_PATH" envDefault:"/auth/signin"`

	// UnauthorizedPath is where guarded pages send clients whose role is not allowed.
	UnauthorizedPath string `env:"HTTP_UNAUTHORIZED_PATH" envDefault:"/unauthorized"`

	// SignedOutPath is where sign-out lands.
	SignedOutPath string `env:"HTTP_SIGNED_OUT_PATH" envDefault:"/auth/signed-out"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`

	// AuthRateLimit is the sustained per-client request rate allowed on auth POST endpoints.
	AuthRateLimit float64 `env:"HTTP_AUTH_RATE_LIMIT" envDefault:"1"`

	// AuthRateBurst is the burst size for AuthRateLimit.
	AuthRateBurst int `env:"HTTP_AUTH_RATE_BURST" envDefault:"5"`

	// TrustProxyHeaders makes the server honor X-Forwarded-For and X-Forwarded-Proto.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" envDefault:"false"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	h.CookieDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")
	h.SignInPath = ensureLeadingSlash(h.SignInPath, "/auth/signin")
	h.UnauthorizedPath = ensureLeadingSlash(h.UnauthorizedPath, "/unauthorized")
	h.SignedOutPath = ensureLeadingSlash(h.SignedOutPath, "/auth/signed-out")

	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.AuthRateLimit <= 0 {
		h.AuthRateLimit = 1
	}
	if h.AuthRateBurst < 1 {
		h.AuthRateBurst = 1
	}
}

// Validate checks the base URL and refuses cookie domains that are public suffixes.
func (h *HTTPConfig) Validate() error {
	u, err := url.Parse(h.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("APP_BASE_URL must be an absolute URL: %q", h.BaseURL)
	}
	if h.CookieDomain == "" {
		return nil
	}
	suffix, _ := publicsuffix.PublicSuffix(h.CookieDomain)
	if suffix == h.CookieDomain {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", h.CookieDomain)
	}
	if !strings.HasSuffix(u.Hostname(), h.CookieDomain) {
		return errors.New("APP_COOKIE_DOMAIN must cover the APP_BASE_URL host")
	}
	return nil
}

func ensureLeadingSlash(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
