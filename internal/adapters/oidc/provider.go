// Package oidc signs users in against an OpenID Connect provider (Google, Auth0, Keycloak).
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/budgetndiostory/bns-api/internal/ports"
	"golang.org/x/oauth2"
)

// Provider implements ports.AuthProvider using the authorization code flow.
type Provider struct {
	name       string
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	// Name is the key stored in accounts.provider. Defaults to "oidc".
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client
}

// DiscoveryDocument is the subset of the discovery document tests serve.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider fetches discovery metadata once and builds the OAuth2 client.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	switch {
	case config.ClientID == "":
		return nil, errors.New("client ID is required")
	case config.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case config.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case config.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	name := config.Name
	if name == "" {
		name = "oidc"
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(ctx, issuerFromDiscoveryURL(config.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		name:         name,
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

func issuerFromDiscoveryURL(u string) string {
	issuer := strings.TrimSuffix(u, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// Name returns the provider key.
func (p *Provider) Name() string { return p.name }

// Begin returns the provider authorization URL with fresh state and nonce values.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured one; the provider matches it exactly.
	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the code, verifies the ID token against the nonce, and fills any
// missing profile fields from the userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error) {
	switch {
	case in.Code == "":
		return domainauth.Profile{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Profile{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Profile{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, rawID, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("extract id_token: %w", err)
	}
	if claims.Subject == "" || claims.Email == "" {
		ui, uiErr := p.getUserInfo(ctx, token)
		if uiErr != nil {
			return domainauth.Profile{}, fmt.Errorf("get user info: %w", uiErr)
		}
		fillMissing(&claims, ui)
	}
	if claims.Subject == "" {
		return domainauth.Profile{}, errors.New("provider returned no subject")
	}

	return p.profileFromClaims(claims, token, rawID), nil
}

// profileClaims is the standard OIDC claim set plus a groups claim.
type profileClaims struct {
	Subject       string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
	Groups        []string `json:"groups"`
	Nonce         string   `json:"nonce"`
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (profileClaims, string, error) {
	var c profileClaims
	if !p.hasOpenIDScope() {
		return c, "", nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return c, "", err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return c, "", fmt.Errorf("verify id_token: %w", err)
	}
	if err = idTok.Claims(&c); err != nil {
		return c, "", fmt.Errorf("parse id_token claims: %w", err)
	}
	if expectedNonce != "" && c.Nonce != expectedNonce {
		return c, "", errors.New("invalid nonce")
	}
	return c, rawID, nil
}

func (p *Provider) getUserInfo(ctx context.Context, tok *oauth2.Token) (profileClaims, error) {
	var c profileClaims
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return c, fmt.Errorf("fetch user info: %w", err)
	}
	if err = ui.Claims(&c); err != nil {
		return c, fmt.Errorf("decode user info: %w", err)
	}
	if c.Subject == "" {
		c.Subject = ui.Subject
	}
	return c, nil
}

// fillMissing copies userinfo claims into c where the ID token left them empty.
func fillMissing(c *profileClaims, ui profileClaims) {
	if c.Subject == "" {
		c.Subject = ui.Subject
	}
	if c.Email == "" {
		c.Email = ui.Email
		c.EmailVerified = ui.EmailVerified
	}
	if c.Name == "" {
		c.Name = ui.Name
	}
	if c.Picture == "" {
		c.Picture = ui.Picture
	}
	if len(c.Groups) == 0 {
		c.Groups = ui.Groups
	}
}

func (p *Provider) profileFromClaims(c profileClaims, tok *oauth2.Token, rawID string) domainauth.Profile {
	scope, _ := tok.Extra("scope").(string)
	return domainauth.Profile{
		Provider:      p.name,
		Type:          domainauth.AccountTypeOIDC,
		Subject:       c.Subject,
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Image:         c.Picture,
		Groups:        c.Groups,
		Tokens: domainauth.ProviderTokens{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.Type(),
			Scope:        scope,
			IDToken:      rawID,
			Expiry:       tok.Expiry,
		},
	}
}

// generateRandomString returns a URL-safe random string of exactly length characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func (p *Provider) hasOpenIDScope() bool {
	return slices.Contains(p.config.Scopes, gooidc.ScopeOpenID)
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
