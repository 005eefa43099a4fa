package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/budgetndiostory/bns-api/internal/service"
)

// Sign-in error codes carried as /auth/signin?error=<code>.
const (
	SignInErrorOAuthCallback    = "oauth_callback"
	SignInErrorAccountNotLinked = "account_not_linked"
	SignInErrorVerification     = "verification"
	SignInErrorUnavailable      = "unavailable"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SessionResolver
	BeginLogin(ctx context.Context, callbackURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.SignInResult, error)
	EmailSignInEnabled() bool
	RequestEmailSignIn(ctx context.Context, in service.EmailSignInInput) error
	CompleteEmailSignIn(ctx context.Context, email, token string) (*service.SignInResult, error)
	SignOut(ctx context.Context, token string) error
	UnlinkProvider(ctx context.Context, userID, provider, providerAccountID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc           AuthServiceInterface
	CookieDomain  string
	SignInPath    string
	SignedOutPath string
	Logger        *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() cookieWriter { return cookieWriter{Domain: h.CookieDomain} }

func (h *AuthHandlers) signInPath() string {
	if h.SignInPath == "" {
		return "/auth/signin"
	}
	return h.SignInPath
}

// SignIn starts the provider login flow.
// GET /auth/signin?callbackUrl=<optional_path>.
//
// When the request carries ?error=<code> from a failed attempt, the error is
// reported instead of restarting the flow.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	callbackURL := safeRedirectPath(r.URL.Query().Get("callbackUrl"))

	if code := r.URL.Query().Get("error"); code != "" {
		WriteJSON(w, http.StatusOK, map[string]any{
			"error":       code,
			"signInUrl":   withQuery(h.signInPath(), "callbackUrl", callbackURL),
			"emailSignIn": h.Svc.EmailSignInEnabled(),
		})
		return
	}

	result, err := h.Svc.BeginLogin(r.Context(), callbackURL)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start sign-in"),
		})
		return
	}

	c := h.cookies()
	c.set(w, r, stateCookieName, result.State, oauthCookieMaxAge)
	c.set(w, r, nonceCookieName, result.Nonce, oauthCookieMaxAge)
	c.set(w, r, callbackCookieName, callbackURL, oauthCookieMaxAge)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the provider login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := h.cookies()
	// State and nonce are single use whatever the outcome.
	c.clear(w, r, stateCookieName)
	c.clear(w, r, nonceCookieName)

	if providerErr := q.Get("error"); providerErr != "" {
		h.logger().InfoContext(r.Context(), "provider returned error", "error", providerErr)
		h.failSignIn(w, r, SignInErrorOAuthCallback)
		return
	}

	code, state := q.Get("code"), q.Get("state")
	stateCookie, err := r.Cookie(stateCookieName)
	if code == "" || state == "" || err != nil || stateCookie.Value != state {
		h.logger().WarnContext(r.Context(), "oauth callback rejected", "reason", "missing or mismatched state")
		h.failSignIn(w, r, SignInErrorOAuthCallback)
		return
	}
	nonceCookie, err := r.Cookie(nonceCookieName)
	if err != nil || nonceCookie.Value == "" {
		h.logger().WarnContext(r.Context(), "oauth callback rejected", "reason", "missing nonce")
		h.failSignIn(w, r, SignInErrorOAuthCallback)
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		h.failSignIn(w, r, signInErrorCode(err))
		return
	}

	c.setSession(w, r, result.SessionToken, result.Expires)
	http.Redirect(w, r, h.popCallbackURL(w, r), http.StatusFound)
}

type emailSignInRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	CallbackURL string `json:"callbackUrl" validate:"omitempty,max=2048"`
}

// EmailSignIn mails a single-use sign-in link.
// POST /auth/signin/email {"email": "...", "callbackUrl": "/path"}.
func (h *AuthHandlers) EmailSignIn(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.EmailSignInEnabled() {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "email_signin_disabled",
			Err:     service.ErrEmailSignInDisabled,
		})
		return
	}

	var req emailSignInRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.StructCtx(r.Context(), req); err != nil {
		writeValidationError(w, err)
		return
	}

	err := h.Svc.RequestEmailSignIn(r.Context(), service.EmailSignInInput{
		Email:       req.Email,
		CallbackURL: safeRedirectPath(req.CallbackURL),
	})
	switch {
	case err == nil:
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	case errors.Is(err, service.ErrInvalidEmail):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_email", Err: err})
	case errors.Is(err, service.ErrThrottled):
		w.Header().Set("Retry-After", "60")
		WriteError(w, ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "rate_limited", Err: err})
	default:
		h.writeServiceError(w, r, "email sign-in request failed", err)
	}
}

// EmailCallback consumes a sign-in link and opens a session.
// GET /auth/callback/email?email=<email>&token=<token>&callbackUrl=<path>.
func (h *AuthHandlers) EmailCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.Svc.CompleteEmailSignIn(r.Context(), q.Get("email"), q.Get("token"))
	if err != nil {
		h.logger().InfoContext(r.Context(), "email sign-in rejected", "error", err)
		h.failSignIn(w, r, signInErrorCode(err))
		return
	}

	h.cookies().setSession(w, r, result.SessionToken, result.Expires)
	http.Redirect(w, r, safeRedirectPath(q.Get("callbackUrl")), http.StatusFound)
}

// SignOut deletes the current session.
// POST /auth/signout.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.Svc.SignOut(r.Context(), token); err != nil {
			h.logger().WarnContext(r.Context(), "sign out failed", "error", err)
		}
	}
	h.cookies().clear(w, r, SessionCookieName)

	signedOut := h.SignedOutPath
	if signedOut == "" {
		signedOut = "/auth/signed-out"
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "signed_out",
			"redirect_to": signedOut,
		})
		return
	}
	http.Redirect(w, r, signedOut, http.StatusSeeOther)
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domainauth.User `json:"user,omitempty"`
	Role          domainauth.Role  `json:"role,omitempty"`
	Expires       *time.Time       `json:"expires,omitempty"`
}

// Session reports the current session.
// GET /auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	token := sessionToken(r)
	sau, err := h.Svc.ResolveSession(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, "resolve session failed", err)
		return
	}

	d := domainauth.Authorize(sau)
	if d.Outcome != domainauth.OutcomeRender {
		if token != "" {
			h.cookies().clear(w, r, SessionCookieName)
		}
		WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	expires := sau.Session.Expires
	if sau.Refreshed {
		h.cookies().setSession(w, r, token, expires)
	}
	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          d.User,
		Role:          d.Role,
		Expires:       &expires,
	})
}

// UnlinkAccount removes one of the caller's linked sign-in methods.
// DELETE /auth/accounts/{provider}/{providerAccountId}. Must run behind RequireRoles.
func (h *AuthHandlers) UnlinkAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		redirectToSignIn(w, r, h.signInPath())
		return
	}

	err := h.Svc.UnlinkProvider(r.Context(), id.User.ID, r.PathValue("provider"), r.PathValue("providerAccountId"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrAccountNotOwned):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "account_not_found", Err: err})
	default:
		h.writeServiceError(w, r, "unlink account failed", err)
	}
}

// failSignIn redirects back to sign-in with an error code, keeping the original callback.
func (h *AuthHandlers) failSignIn(w http.ResponseWriter, r *http.Request, code string) {
	q := url.Values{}
	q.Set("error", code)
	if cb, err := r.Cookie(callbackCookieName); err == nil && cb.Value != "" {
		q.Set("callbackUrl", safeRedirectPath(cb.Value))
		h.cookies().clear(w, r, callbackCookieName)
	}
	http.Redirect(w, r, h.signInPath()+"?"+q.Encode(), http.StatusSeeOther)
}

// popCallbackURL returns the post-login destination and clears its cookie.
func (h *AuthHandlers) popCallbackURL(w http.ResponseWriter, r *http.Request) string {
	cb, err := r.Cookie(callbackCookieName)
	if err != nil {
		return "/"
	}
	h.cookies().clear(w, r, callbackCookieName)
	return safeRedirectPath(cb.Value)
}

func (h *AuthHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger().ErrorContext(r.Context(), msg, "error", err)
	if apperrors.IsStoreUnavailable(err) {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "unavailable",
			Err:     errors.New("service temporarily unavailable"),
		})
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "internal_error",
		Err:     errors.New("internal error"),
	})
}

// signInErrorCode maps a sign-in failure to the code shown on the sign-in page.
func signInErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrAccountNotLinked):
		return SignInErrorAccountNotLinked
	case errors.Is(err, service.ErrVerificationInvalid), errors.Is(err, service.ErrVerificationExpired):
		return SignInErrorVerification
	case apperrors.IsStoreUnavailable(err):
		return SignInErrorUnavailable
	default:
		return SignInErrorOAuthCallback
	}
}
