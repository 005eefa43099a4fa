package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/budgetndiostory/bns-api/internal/ports"
	"github.com/go-playground/validator/v10"
)

// EmailProvider is the accounts.provider value for passwordless sign-in.
const EmailProvider = "email"

const sessionTokenBytes = 32

var (
	// ErrAccountNotLinked is returned when a provider identity carries an email that already
	// belongs to a user through a different sign-in method. Accounts are never linked implicitly.
	ErrAccountNotLinked = errors.New("email already registered with another sign-in method")
	// ErrVerificationInvalid is returned for unknown or already used sign-in links.
	ErrVerificationInvalid = errors.New("verification token is invalid")
	// ErrVerificationExpired is returned for sign-in links used after their expiry.
	ErrVerificationExpired = errors.New("verification token has expired")
	// ErrAccountNotOwned is returned when a user tries to unlink an account that is not theirs.
	ErrAccountNotOwned = errors.New("account is not linked to this user")
	// ErrUserNotFound is returned by operator paths addressing a user that does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrThrottled is returned when an address has requested too many sign-in emails.
	ErrThrottled = errors.New("too many sign-in attempts")
	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidRole is returned for role values outside the enumeration.
	ErrInvalidRole = errors.New("invalid role")
	// ErrEmailSignInDisabled is returned when no mailer is configured.
	ErrEmailSignInDisabled = errors.New("email sign-in is not enabled")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider   // Required: external identity provider
	Store    ports.IdentityStore  // Required: identity persistence
	Roles    ports.RoleMapper     // Optional: initial role from provider groups
	Mailer   ports.Mailer         // Optional: enables email sign-in
	Throttle ports.SignInThrottle // Optional: bounds sign-in emails per address
	Config   config.AuthConfig
	BaseURL  string // Public base URL used in sign-in links
	Logger   *slog.Logger
	Now      func() time.Time
}

// AuthService drives the identity adapter through the sign-in, session and account flows.
type AuthService struct {
	*UserAdmin

	provider ports.AuthProvider
	store    ports.IdentityStore
	roles    ports.RoleMapper
	mailer   ports.Mailer
	throttle ports.SignInThrottle
	cfg      config.AuthConfig
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Provider == nil {
		return nil, errors.New("AuthProvider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("IdentityStore is required")
	}
	if opts.Config.SessionMaxAge <= 0 {
		return nil, errors.New("session max age must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger = logger.With("component", "auth_service")
	return &AuthService{
		UserAdmin: &UserAdmin{store: opts.Store, logger: logger},
		provider:  opts.Provider,
		store:     opts.Store,
		roles:     opts.Roles,
		mailer:    opts.Mailer,
		throttle:  opts.Throttle,
		cfg:       opts.Config,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		logger:    logger,
		now:       func() time.Time { return now().UTC() },
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// ProviderName returns the configured provider key.
func (s *AuthService) ProviderName() string { return s.provider.Name() }

// EmailSignInEnabled reports whether a mailer is configured.
func (s *AuthService) EmailSignInEnabled() bool { return s.mailer != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, callbackURL string) (*BeginLoginResult, error) {
	if callbackURL == "" {
		return nil, errors.New("callback URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: callbackURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// SignInResult is a freshly created session and its user.
type SignInResult struct {
	SessionToken string
	Expires      time.Time
	User         domainauth.User
	IsNewUser    bool
}

// CompleteLogin exchanges the authorization code, resolves or creates the user,
// and opens a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*SignInResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	profile, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if profile.Subject == "" {
		return nil, errors.New("provider profile has no subject")
	}
	if profile.Provider == "" {
		profile.Provider = s.provider.Name()
	}
	profile.Email = normalizeEmail(profile.Email)

	user, isNew, err := s.resolveProfileUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, *user, isNew)
}

func (s *AuthService) resolveProfileUser(ctx context.Context, p domainauth.Profile) (*domainauth.User, bool, error) {
	existing, err := s.store.GetUserByAccount(ctx, p.Provider, p.Subject)
	if err != nil {
		return nil, false, fmt.Errorf("get user by account: %w", err)
	}
	if existing != nil {
		updated, syncErr := s.syncProfile(ctx, *existing, p)
		return updated, false, syncErr
	}

	if p.Email != "" {
		byEmail, lookupErr := s.store.GetUserByEmail(ctx, p.Email)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("get user by email: %w", lookupErr)
		}
		if byEmail != nil {
			return nil, false, ErrAccountNotLinked
		}
	}

	return s.createProfileUser(ctx, p)
}

// syncProfile writes the provider's current name, image and verification onto an existing user.
// The stored email is kept; it is the key for email sign-in.
func (s *AuthService) syncProfile(ctx context.Context, u domainauth.User, p domainauth.Profile) (*domainauth.User, error) {
	upd := domainauth.UserUpdate{
		ID:            u.ID,
		Name:          firstNonEmpty(p.Name, u.Name),
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         firstNonEmpty(p.Image, u.Image),
	}
	if upd.EmailVerified == nil && p.EmailVerified && u.Email != nil && *u.Email == p.Email {
		now := s.now()
		upd.EmailVerified = &now
	}
	if sameProfile(u, upd) {
		return &u, nil
	}

	updated, err := s.store.UpdateUser(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

// createProfileUser registers the provider identity as a new user and links its account.
// A user row is never left behind without its account: a failure after the insert removes it,
// and losing the link race to a concurrent sign-in continues as the winner.
func (s *AuthService) createProfileUser(ctx context.Context, p domainauth.Profile) (*domainauth.User, bool, error) {
	in := domainauth.NewUser{
		Name:  optional(p.Name),
		Email: optional(p.Email),
		Image: optional(p.Image),
	}
	if p.EmailVerified && p.Email != "" {
		now := s.now()
		in.EmailVerified = &now
	}

	user, err := s.store.CreateUser(ctx, in)
	if err != nil {
		if apperrors.IsConflict(err) {
			// Another sign-in registered the email between our lookup and insert.
			return s.linkedUser(ctx, p, ErrAccountNotLinked)
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	if s.roles != nil {
		if role := s.roles.Map(p.Groups); role != domainauth.RoleViewer && role.IsValid() {
			withRole, roleErr := s.store.SetUserRole(ctx, user.ID, role)
			if roleErr != nil {
				return nil, false, s.discardUser(ctx, user.ID, fmt.Errorf("set initial role: %w", roleErr))
			}
			if withRole != nil {
				user = withRole
			}
		}
	}

	if _, err = s.store.LinkAccount(ctx, accountFromProfile(user.ID, p)); err != nil {
		linkErr := s.discardUser(ctx, user.ID, fmt.Errorf("link account: %w", err))
		if apperrors.IsConflict(err) {
			return s.linkedUser(ctx, p, linkErr)
		}
		return nil, false, linkErr
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "provider", p.Provider, "role", user.Role)
	return user, true, nil
}

// linkedUser re-reads the owner of p's account after a lost insert race. fallback is
// returned when the account is still unlinked.
func (s *AuthService) linkedUser(ctx context.Context, p domainauth.Profile, fallback error) (*domainauth.User, bool, error) {
	owner, err := s.store.GetUserByAccount(ctx, p.Provider, p.Subject)
	if err != nil {
		return nil, false, errors.Join(fallback, fmt.Errorf("get user by account: %w", err))
	}
	if owner == nil {
		return nil, false, fallback
	}
	s.logger.InfoContext(ctx, "concurrent sign-in linked account first", "user_id", owner.ID, "provider", p.Provider)
	return owner, false, nil
}

// discardUser removes a user whose sign-up did not complete and returns cause,
// joined with the delete error when the removal fails too.
func (s *AuthService) discardUser(ctx context.Context, userID string, cause error) error {
	if err := s.store.DeleteUser(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove incomplete user", "user_id", userID, "error", err)
		return errors.Join(cause, fmt.Errorf("remove incomplete user: %w", err))
	}
	return cause
}

func accountFromProfile(userID string, p domainauth.Profile) domainauth.Account {
	acct := domainauth.Account{
		UserID:            userID,
		Type:              p.Type,
		Provider:          p.Provider,
		ProviderAccountID: p.Subject,
		RefreshToken:      optional(p.Tokens.RefreshToken),
		AccessToken:       optional(p.Tokens.AccessToken),
		TokenType:         optional(p.Tokens.TokenType),
		Scope:             optional(p.Tokens.Scope),
		IDToken:           optional(p.Tokens.IDToken),
	}
	if acct.Type == "" {
		acct.Type = domainauth.AccountTypeOAuth
	}
	if !p.Tokens.Expiry.IsZero() {
		exp := p.Tokens.Expiry.Unix()
		acct.ExpiresAt = &exp
	}
	return acct
}

// EmailSignInInput is a request for a sign-in link.
type EmailSignInInput struct {
	Email       string `validate:"required,email,max=254"`
	CallbackURL string `validate:"omitempty,max=2048"`
}

// RequestEmailSignIn stores a hashed single-use token and mails the sign-in link.
func (s *AuthService) RequestEmailSignIn(ctx context.Context, in EmailSignInInput) error {
	if s.mailer == nil {
		return ErrEmailSignInDisabled
	}
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return ErrInvalidEmail
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, "email:"+in.Email)
		if err != nil {
			s.logger.WarnContext(ctx, "sign-in throttle unavailable", "error", err)
		} else if !allowed {
			return ErrThrottled
		}
	}

	raw, err := randomToken(sessionTokenBytes)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	expires := s.now().Add(s.cfg.VerificationTTL)
	if _, err = s.store.CreateVerificationToken(ctx, domainauth.VerificationToken{
		Identifier: in.Email,
		Token:      s.hashToken(raw),
		Expires:    expires,
	}); err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}

	q := url.Values{}
	q.Set("email", in.Email)
	q.Set("token", raw)
	if in.CallbackURL != "" {
		q.Set("callbackUrl", in.CallbackURL)
	}
	link := s.baseURL + "/auth/callback/email?" + q.Encode()

	if err = s.mailer.SendSignIn(ctx, ports.SignInEmail{To: in.Email, URL: link, Expires: expires}); err != nil {
		return fmt.Errorf("send sign-in email: %w", err)
	}
	s.logger.DebugContext(ctx, "sign-in email sent", "email", in.Email)
	return nil
}

// CompleteEmailSignIn consumes a sign-in link and opens a session for its address.
func (s *AuthService) CompleteEmailSignIn(ctx context.Context, email, token string) (*SignInResult, error) {
	email = normalizeEmail(email)
	if email == "" || token == "" {
		return nil, ErrVerificationInvalid
	}

	vt, err := s.store.UseVerificationToken(ctx, email, s.hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("use verification token: %w", err)
	}
	if vt == nil {
		return nil, ErrVerificationInvalid
	}
	if vt.Expired(s.now()) {
		return nil, ErrVerificationExpired
	}

	user, isNew, err := s.resolveEmailUser(ctx, email)
	if err != nil {
		return nil, err
	}

	linked, err := s.store.GetUserByAccount(ctx, EmailProvider, email)
	if err != nil {
		return nil, fmt.Errorf("get email account: %w", err)
	}
	if linked == nil {
		_, err = s.store.LinkAccount(ctx, domainauth.Account{
			UserID:            user.ID,
			Type:              domainauth.AccountTypeEmail,
			Provider:          EmailProvider,
			ProviderAccountID: email,
		})
		if err != nil && !apperrors.IsConflict(err) {
			return nil, fmt.Errorf("link email account: %w", err)
		}
	}

	return s.openSession(ctx, *user, isNew)
}

func (s *AuthService) resolveEmailUser(ctx context.Context, email string) (*domainauth.User, bool, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("get user by email: %w", err)
	}

	now := s.now()
	if user == nil {
		created, createErr := s.store.CreateUser(ctx, domainauth.NewUser{Email: &email, EmailVerified: &now})
		if createErr == nil {
			s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "provider", EmailProvider)
			return created, true, nil
		}
		if !apperrors.IsConflict(createErr) {
			return nil, false, fmt.Errorf("create user: %w", createErr)
		}
		// A concurrent sign-in for the same address won the insert.
		if user, err = s.store.GetUserByEmail(ctx, email); err != nil || user == nil {
			return nil, false, fmt.Errorf("get user by email: %w", errors.Join(err, createErr))
		}
	}

	if user.EmailVerified != nil {
		return user, false, nil
	}
	verified, err := s.store.UpdateUser(ctx, domainauth.UserUpdate{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: &now,
		Image:         user.Image,
	})
	if err != nil {
		return nil, false, fmt.Errorf("mark email verified: %w", err)
	}
	if verified == nil {
		return nil, false, ErrUserNotFound
	}
	return verified, false, nil
}

func (s *AuthService) openSession(ctx context.Context, user domainauth.User, isNew bool) (*SignInResult, error) {
	token, err := randomToken(sessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	sess, err := s.store.CreateSession(ctx, domainauth.Session{
		SessionToken: token,
		UserID:       user.ID,
		Expires:      s.now().Add(s.cfg.SessionMaxAge),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &SignInResult{
		SessionToken: sess.SessionToken,
		Expires:      sess.Expires,
		User:         user,
		IsNewUser:    isNew,
	}, nil
}

// ResolveSession returns the live session for token, or nil when there is none.
// Expired sessions are deleted. Live sessions slide forward at most once per SessionUpdateAge.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domainauth.SessionAndUser, error) {
	if token == "" {
		return nil, nil
	}

	sau, err := s.store.GetSessionAndUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sau == nil {
		return nil, nil
	}

	now := s.now()
	if sau.Session.Expired(now) {
		if err = s.store.DeleteSession(ctx, token); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, nil
	}

	dueAt := sau.Session.Expires.Add(-s.cfg.SessionMaxAge).Add(s.cfg.SessionUpdateAge)
	if now.Before(dueAt) {
		return sau, nil
	}

	updated, err := s.store.UpdateSession(ctx, token, now.Add(s.cfg.SessionMaxAge))
	if err != nil {
		return nil, fmt.Errorf("extend session: %w", err)
	}
	if updated == nil {
		// Signed out concurrently.
		return nil, nil
	}
	sau.Session.Expires = updated.Expires
	sau.Refreshed = true
	return sau, nil
}

// SignOut deletes the session. Unknown tokens are not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UnlinkProvider removes one of userID's linked accounts.
func (s *AuthService) UnlinkProvider(ctx context.Context, userID, provider, providerAccountID string) error {
	owner, err := s.store.GetUserByAccount(ctx, provider, providerAccountID)
	if err != nil {
		return fmt.Errorf("get account owner: %w", err)
	}
	if owner == nil || owner.ID != userID {
		return ErrAccountNotOwned
	}
	if err = s.store.UnlinkAccount(ctx, provider, providerAccountID); err != nil {
		return fmt.Errorf("unlink account: %w", err)
	}
	return nil
}

// hashToken keys verification tokens so a database read does not yield usable links.
func (s *AuthService) hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw + s.cfg.Secret))
	return hex.EncodeToString(sum[:])
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(v string, fallback *string) *string {
	if v != "" {
		return &v
	}
	return fallback
}

func sameProfile(u domainauth.User, upd domainauth.UserUpdate) bool {
	return equalPtr(u.Name, upd.Name) && equalPtr(u.Image, upd.Image) &&
		equalPtr(u.Email, upd.Email) && equalTimePtr(u.EmailVerified, upd.EmailVerified)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
