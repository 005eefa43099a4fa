// Package devauth provides a config-driven AuthProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/budgetndiostory/bns-api/internal/ports"
)

// ProviderName is the accounts.provider key for dev sign-ins.
const ProviderName = "dev"

// Config describes the single identity the dev provider signs in.
// Subject and Email are required; Name and Groups may be empty.
type Config struct {
	Subject string
	Email   string
	Name    string
	Groups  []string
}

// Provider implements ports.AuthProvider without an external IdP. Begin redirects
// straight back to the local callback with generated state; Exchange ignores the code
// and returns the configured profile.
type Provider struct {
	profile domainauth.Profile
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	return &Provider{profile: domainauth.Profile{
		Provider:      ProviderName,
		Type:          domainauth.AccountTypeOAuth,
		Subject:       cfg.Subject,
		Email:         strings.ToLower(cfg.Email),
		EmailVerified: true,
		Name:          cfg.Name,
		Groups:        append([]string(nil), cfg.Groups...),
	}}, nil
}

func (p *Provider) Name() string { return ProviderName }

// Begin returns a local callback URL and random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured profile; state and nonce are checked by the handler.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Profile, error) {
	out := p.profile
	out.Groups = append([]string(nil), p.profile.Groups...)
	return out, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
