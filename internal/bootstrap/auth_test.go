package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/adapters/mailer"
	redisadapter "github.com/budgetndiostory/bns-api/internal/adapters/redis"
	mockauth "github.com/budgetndiostory/bns-api/internal/mocks/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func devAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode: config.AuthModeMock,
		DevAuth: config.DevAuthConfig{
			Subject: "dev-user",
			Email:   "dev@example.com",
			Name:    "Dev User",
			Groups:  []string{"admins"},
		},
		AdminGroup:        "admins",
		SessionMaxAge:     24 * time.Hour,
		SessionUpdateAge:  time.Hour,
		VerificationTTL:   time.Hour,
		Secret:            "secret",
		EmailSignInLimit:  5,
		EmailSignInWindow: time.Minute,
	}
}

func TestBuildAuthService_DevMode(t *testing.T) {
	svc, err := BuildAuthService(context.Background(), AuthDeps{
		Auth:    devAuthConfig(),
		Mail:    config.MailConfig{Transport: config.MailTransportLog},
		BaseURL: "http://localhost:8080",
		Store:   mockauth.NewMemoryIdentityStore(),
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, "dev", svc.ProviderName())
	assert.True(t, svc.EmailSignInEnabled())
}

func TestBuildAuthService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		deps    func() AuthDeps
		wantErr string
	}{
		{
			name: "no store",
			deps: func() AuthDeps {
				return AuthDeps{Auth: devAuthConfig()}
			},
			wantErr: "database is required",
		},
		{
			name: "oauth without client",
			deps: func() AuthDeps {
				auth := devAuthConfig()
				auth.Mode = config.AuthModeOAuth
				auth.OAuth = config.OAuthConfig{DiscoveryURL: "https://issuer.example.com"}
				return AuthDeps{Auth: auth, Store: mockauth.NewMemoryIdentityStore()}
			},
			wantErr: "OAUTH_CLIENT_ID",
		},
		{
			name: "dev mode without subject",
			deps: func() AuthDeps {
				auth := devAuthConfig()
				auth.DevAuth.Subject = ""
				return AuthDeps{Auth: auth, Store: mockauth.NewMemoryIdentityStore()}
			},
			wantErr: "dev auth provider",
		},
		{
			name: "smtp without host",
			deps: func() AuthDeps {
				return AuthDeps{
					Auth:  devAuthConfig(),
					Mail:  config.MailConfig{Transport: config.MailTransportSMTP, Port: 587, From: "a@x.com"},
					Store: mockauth.NewMemoryIdentityStore(),
				}
			},
			wantErr: "smtp host is required",
		},
		{
			name: "zero session max age",
			deps: func() AuthDeps {
				auth := devAuthConfig()
				auth.SessionMaxAge = 0
				return AuthDeps{Auth: auth, Store: mockauth.NewMemoryIdentityStore()}
			},
			wantErr: "session max age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := tt.deps()
			deps.Logger = testLogger()
			svc, err := BuildAuthService(context.Background(), deps)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildMailer(t *testing.T) {
	m, err := buildMailer(config.MailConfig{Transport: config.MailTransportLog}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, mailer.LogMailer{}, m)

	m, err = buildMailer(config.MailConfig{
		Transport: config.MailTransportSMTP,
		Host:      "smtp.example.com",
		Port:      587,
		From:      "no-reply@budgetndiostory.org",
	}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTPMailer{}, m)

	_, err = buildMailer(config.MailConfig{Transport: "pigeon"}, testLogger())
	assert.Error(t, err)
}

func TestBuildThrottle(t *testing.T) {
	cfg := devAuthConfig()

	th, err := buildThrottle(nil, cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, redisadapter.NoopThrottle{}, th)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	th, err = buildThrottle(client, cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &redisadapter.SignInThrottle{}, th)

	cfg.EmailSignInLimit = 0
	th, err = buildThrottle(client, cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, redisadapter.NoopThrottle{}, th)
}
