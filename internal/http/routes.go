package httpx

import (
	"log/slog"
	"net/http"

	"github.com/budgetndiostory/bns-api/config"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  AuthServiceInterface
	Admin AdminServiceInterface
	DB    Pinger // Optional: readiness probe target

	// Optional: limits auth POSTs per client. Nil disables limiting.
	RateLimiter *RateLimiter

	HTTP   config.HTTPConfig
	Logger *slog.Logger
}

// Role sets for the guarded routes.
//
//nolint:gochecknoglobals // read-only allow-lists
var (
	adminRoles  = []domainauth.Role{domainauth.RoleAdmin}
	editorRoles = []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEditor}
	studioRoles = []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEditor, domainauth.RoleAuthor}
)

// NewRouter creates and configures the HTTP router. Recover and Logging are applied by the caller.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.HandleFunc("GET /readyz", readinessHandler(services.DB, logger))

	if services.Auth == nil {
		return mux
	}

	guard := func(roles ...domainauth.Role) func(http.Handler) http.Handler {
		return RequireRoles(GuardOptions{
			Resolver:         services.Auth,
			SignInPath:       services.HTTP.SignInPath,
			UnauthorizedPath: services.HTTP.UnauthorizedPath,
			CookieDomain:     services.HTTP.CookieDomain,
			Logger:           logger,
		}, roles...)
	}

	authHandlers := &AuthHandlers{
		Svc:           services.Auth,
		CookieDomain:  services.HTTP.CookieDomain,
		SignInPath:    services.HTTP.SignInPath,
		SignedOutPath: services.HTTP.SignedOutPath,
		Logger:        logger,
	}
	registerAuthRoutes(mux, authHandlers, services.RateLimiter, guard)
	registerPageRoutes(mux, services.HTTP, guard)

	if services.Admin != nil {
		adminHandlers := &AdminHandlers{Svc: services.Admin, Logger: logger}
		registerAdminRoutes(mux, adminHandlers, guard)
	}

	return mux
}

type guardFunc func(roles ...domainauth.Role) func(http.Handler) http.Handler

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, rl *RateLimiter, guard guardFunc) {
	limit := func(next http.HandlerFunc) http.Handler {
		if rl == nil {
			return next
		}
		return rl.Middleware()(next)
	}

	mux.HandleFunc("GET "+h.signInPath(), h.SignIn)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.Handle("POST /auth/signin/email", limit(h.EmailSignIn))
	mux.HandleFunc("GET /auth/callback/email", h.EmailCallback)
	mux.Handle("POST /auth/signout", limit(h.SignOut))
	mux.HandleFunc("GET /auth/session", h.Session)
	mux.Handle("DELETE /auth/accounts/{provider}/{providerAccountId}", guard()(http.HandlerFunc(h.UnlinkAccount)))
}

func registerPageRoutes(mux *http.ServeMux, cfg config.HTTPConfig, guard guardFunc) {
	unauthorized := cfg.UnauthorizedPath
	if unauthorized == "" {
		unauthorized = "/unauthorized"
	}
	signedOut := cfg.SignedOutPath
	if signedOut == "" {
		signedOut = "/auth/signed-out"
	}
	signIn := cfg.SignInPath
	if signIn == "" {
		signIn = "/auth/signin"
	}

	mux.HandleFunc("GET "+unauthorized, unauthorizedPage)
	mux.Handle("GET "+signedOut, signedOutPage(signIn))

	mux.Handle("GET /admin", guard(editorRoles...)(identityPage(PageAdmin)))
	mux.Handle("GET /admin/users/{id}", guard(adminRoles...)(identityPage(PageAdminUser, "id")))
	mux.Handle("GET /studio", guard(studioRoles...)(identityPage(PageStudio)))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, guard guardFunc) {
	mux.Handle("PUT /admin/users/{id}/role", guard(adminRoles...)(http.HandlerFunc(h.SetRole)))
	mux.Handle("DELETE /admin/users/{id}", guard(adminRoles...)(http.HandlerFunc(h.DeleteUser)))
}
