package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver resolves a session token to its live session and user.
// A missing, unknown or expired token yields (nil, nil).
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domainauth.SessionAndUser, error)
}

// GuardOptions configures RequireRoles. CookieDomain applies when a refreshed
// session cookie is re-sent.
type GuardOptions struct {
	Resolver         SessionResolver
	SignInPath       string
	UnauthorizedPath string
	CookieDomain     string
	Logger           *slog.Logger
}

// RequireRoles returns a middleware that admits only sessions whose user holds one of
// the allowed roles. With no roles listed, any signed-in user is admitted.
//
// Anonymous requests are redirected to sign in with the original request URI as
// callbackUrl. Signed-in users without an allowed role are redirected to the
// unauthorized page, whether or not the resource exists. The session is resolved on
// every request, and a session whose expiry slid gets its cookie re-sent.
func RequireRoles(opts GuardOptions, allowed ...domainauth.Role) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signInPath := opts.SignInPath
	if signInPath == "" {
		signInPath = "/auth/signin"
	}
	unauthorizedPath := opts.UnauthorizedPath
	if unauthorizedPath == "" {
		unauthorizedPath = "/unauthorized"
	}
	allowed = append([]domainauth.Role(nil), allowed...)
	cookies := cookieWriter{Domain: opts.CookieDomain}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			sau, err := opts.Resolver.ResolveSession(r.Context(), token)
			if err != nil {
				logger.ErrorContext(r.Context(), "resolve session failed",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				w.Header().Set("Retry-After", "5")
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			d := domainauth.Authorize(sau, allowed...)
			switch d.Outcome {
			case domainauth.OutcomeRender:
				if sau.Refreshed {
					cookies.setSession(w, r, token, sau.Session.Expires)
				}
				w.Header().Set("Cache-Control", "no-store")
				ctx := SetIdentityInContext(r.Context(), &Identity{User: *d.User, Role: d.Role})
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.OutcomeUnauthorized:
				logger.DebugContext(r.Context(), "role not allowed",
					slog.String("path", r.URL.Path),
					slog.String("user_id", sau.User.ID))
				http.Redirect(w, r, unauthorizedPath, http.StatusSeeOther)
			default:
				redirectToSignIn(w, r, signInPath)
			}
		})
	}
}

// redirectToSignIn sends the client to sign in, carrying the current request URI as callbackUrl.
func redirectToSignIn(w http.ResponseWriter, r *http.Request, signInPath string) {
	callback := safeRedirectPath(r.URL.RequestURI())
	http.Redirect(w, r, withQuery(signInPath, "callbackUrl", callback), http.StatusSeeOther)
}
