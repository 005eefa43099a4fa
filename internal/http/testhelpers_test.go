package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	mockauth "github.com/budgetndiostory/bns-api/internal/mocks/auth"
	"github.com/budgetndiostory/bns-api/internal/service"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{
		SignInPath:       "/auth/signin",
		UnauthorizedPath: "/unauthorized",
		SignedOutPath:    "/auth/signed-out",
	}
}

// testApp is the full router over a real AuthService and an in-memory store.
type testApp struct {
	handler  http.Handler
	svc      *service.AuthService
	store    *mockauth.MemoryIdentityStore
	provider *mockauth.MockAuthProvider
	mailer   *mockauth.RecordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		store:    mockauth.NewMemoryIdentityStore(),
		provider: mockauth.NewMockAuthProvider(),
		mailer:   &mockauth.RecordingMailer{},
	}

	svc, err := service.NewAuthService(service.AuthServiceOptions{
		Provider: app.provider,
		Store:    app.store,
		Mailer:   app.mailer,
		Config: config.AuthConfig{
			SessionMaxAge:    24 * time.Hour,
			SessionUpdateAge: time.Hour,
			VerificationTTL:  time.Hour,
			Secret:           "test-secret",
		},
		BaseURL: "https://budgetndiostory.org",
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	app.svc = svc

	app.handler = NewRouter(RouterServices{
		Auth:   svc,
		Admin:  svc,
		HTTP:   testHTTPConfig(),
		Logger: testLogger(),
	})
	return app
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// seedUser stores a user with role and an open session, returning the session token.
func (a *testApp) seedUser(t *testing.T, email string, role domainauth.Role) (domainauth.User, string) {
	t.Helper()
	ctx := context.Background()

	u, err := a.store.CreateUser(ctx, domainauth.NewUser{Email: &email})
	require.NoError(t, err)
	if role != domainauth.RoleViewer {
		u, err = a.store.SetUserRole(ctx, u.ID, role)
		require.NoError(t, err)
	}

	token := "tok-" + u.ID
	_, err = a.store.CreateSession(ctx, domainauth.Session{
		SessionToken: token,
		UserID:       u.ID,
		Expires:      time.Now().Add(12 * time.Hour),
	})
	require.NoError(t, err)
	return *u, token
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// stubAuthService scripts AuthServiceInterface for error-path tests.
type stubAuthService struct {
	resolveFunc      func(ctx context.Context, token string) (*domainauth.SessionAndUser, error)
	beginFunc        func(ctx context.Context, callbackURL string) (*service.BeginLoginResult, error)
	completeFunc     func(ctx context.Context, in service.CompleteLoginInput) (*service.SignInResult, error)
	requestEmailFunc func(ctx context.Context, in service.EmailSignInInput) error
	completeEmail    func(ctx context.Context, email, token string) (*service.SignInResult, error)
	signOutFunc      func(ctx context.Context, token string) error
	unlinkFunc       func(ctx context.Context, userID, provider, providerAccountID string) error
	emailDisabled    bool
}

func (s *stubAuthService) ResolveSession(ctx context.Context, token string) (*domainauth.SessionAndUser, error) {
	if s.resolveFunc != nil {
		return s.resolveFunc(ctx, token)
	}
	return nil, nil
}

func (s *stubAuthService) BeginLogin(ctx context.Context, callbackURL string) (*service.BeginLoginResult, error) {
	if s.beginFunc != nil {
		return s.beginFunc(ctx, callbackURL)
	}
	return &service.BeginLoginResult{AuthURL: "https://idp/auth", State: "st", Nonce: "no"}, nil
}

func (s *stubAuthService) CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*service.SignInResult, error) {
	if s.completeFunc != nil {
		return s.completeFunc(ctx, in)
	}
	return &service.SignInResult{SessionToken: "session", Expires: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) EmailSignInEnabled() bool { return !s.emailDisabled }

func (s *stubAuthService) RequestEmailSignIn(ctx context.Context, in service.EmailSignInInput) error {
	if s.requestEmailFunc != nil {
		return s.requestEmailFunc(ctx, in)
	}
	return nil
}

func (s *stubAuthService) CompleteEmailSignIn(ctx context.Context, email, token string) (*service.SignInResult, error) {
	if s.completeEmail != nil {
		return s.completeEmail(ctx, email, token)
	}
	return &service.SignInResult{SessionToken: "session", Expires: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) SignOut(ctx context.Context, token string) error {
	if s.signOutFunc != nil {
		return s.signOutFunc(ctx, token)
	}
	return nil
}

func (s *stubAuthService) UnlinkProvider(ctx context.Context, userID, provider, providerAccountID string) error {
	if s.unlinkFunc != nil {
		return s.unlinkFunc(ctx, userID, provider, providerAccountID)
	}
	return nil
}
