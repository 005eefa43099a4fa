package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/adapters/authroles"
	"github.com/budgetndiostory/bns-api/internal/adapters/devauth"
	"github.com/budgetndiostory/bns-api/internal/adapters/mailer"
	"github.com/budgetndiostory/bns-api/internal/adapters/oidc"
	redisadapter "github.com/budgetndiostory/bns-api/internal/adapters/redis"
	"github.com/budgetndiostory/bns-api/internal/data"
	"github.com/budgetndiostory/bns-api/internal/data/cryptoutil"
	"github.com/budgetndiostory/bns-api/internal/ports"
	"github.com/budgetndiostory/bns-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthDeps contains the dependencies for building the auth service.
type AuthDeps struct {
	Auth      config.AuthConfig
	Mail      config.MailConfig
	BaseURL   string
	DB        *sql.DB
	Redis     redis.UniversalClient // Optional: enables the sign-in email throttle
	Encryptor cryptoutil.Encryptor
	Logger    *slog.Logger

	// Store overrides the Postgres identity adapter (tests).
	Store ports.IdentityStore
}

// BuildAuthService wires the provider, identity store, mailer and throttle for the configured auth mode.
func BuildAuthService(ctx context.Context, deps AuthDeps) (*service.AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := deps.Store
	if store == nil {
		if deps.DB == nil {
			return nil, errors.New("auth: database is required")
		}
		store = data.NewIdentityAdapter(deps.DB, data.IdentityAdapterOptions{Encryptor: deps.Encryptor})
	}

	provider, err := buildProvider(ctx, deps.Auth)
	if err != nil {
		return nil, err
	}

	mail, err := buildMailer(deps.Mail, logger)
	if err != nil {
		return nil, err
	}

	throttle, err := buildThrottle(deps.Redis, deps.Auth, logger)
	if err != nil {
		return nil, err
	}

	svc, err := service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Store:    store,
		Roles: authroles.StaticRoleMapper{
			AdminGroup:  deps.Auth.AdminGroup,
			EditorGroup: deps.Auth.EditorGroup,
			AuthorGroup: deps.Auth.AuthorGroup,
		},
		Mailer:   mail,
		Throttle: throttle,
		Config:   deps.Auth,
		BaseURL:  deps.BaseURL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	logger.InfoContext(ctx, "auth service ready",
		"mode", deps.Auth.Mode,
		"provider", provider.Name(),
		"mail_transport", deps.Mail.Transport,
		"email_throttle", deps.Redis != nil && deps.Auth.EmailSignInLimit > 0,
	)
	return svc, nil
}

//nolint:ireturn // the provider is chosen at runtime
func buildProvider(ctx context.Context, cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Subject: cfg.DevAuth.Subject,
			Email:   cfg.DevAuth.Email,
			Name:    cfg.DevAuth.Name,
			Groups:  cfg.DevAuth.Groups,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, errors.New("oauth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
		}
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			Name:         oauth.ProviderName,
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

//nolint:ireturn // the transport is chosen at runtime
func buildMailer(cfg config.MailConfig, logger *slog.Logger) (ports.Mailer, error) {
	switch cfg.Transport {
	case config.MailTransportSMTP:
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			SiteName: cfg.SiteName,
		})
		if err != nil {
			return nil, fmt.Errorf("create smtp mailer: %w", err)
		}
		return m, nil
	case config.MailTransportLog, "":
		return mailer.LogMailer{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported mail transport %q", cfg.Transport)
	}
}

//nolint:ireturn // a no-op throttle stands in when redis is off
func buildThrottle(client redis.UniversalClient, cfg config.AuthConfig, logger *slog.Logger) (ports.SignInThrottle, error) {
	if client == nil || cfg.EmailSignInLimit == 0 {
		return redisadapter.NoopThrottle{}, nil
	}
	t, err := redisadapter.NewSignInThrottle(client, redisadapter.SignInThrottleOptions{
		Limit:  cfg.EmailSignInLimit,
		Window: cfg.EmailSignInWindow,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create sign-in throttle: %w", err)
	}
	return t, nil
}
