package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names.
const (
	SessionCookieName  = "bns.session-token"
	stateCookieName    = "bns.oauth-state"
	nonceCookieName    = "bns.oauth-nonce"
	callbackCookieName = "bns.callback-url"

	// oauthCookieMaxAge bounds how long a provider round trip may take.
	oauthCookieMaxAge = 600
)

// cookieWriter sets and clears cookies with one consistent attribute set.
type cookieWriter struct {
	Domain string
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (c cookieWriter) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clear expires a cookie. It mirrors the attributes used when setting it so
// browsers match and delete the right one.
func (c cookieWriter) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSession writes the session cookie so that it lives exactly as long as the session row.
func (c cookieWriter) setSession(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.set(w, r, SessionCookieName, token, maxAge)
}

// sessionToken returns the session cookie value, or "" when absent.
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// "//host" and "/\host" are treated as scheme-relative by browsers.
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// withQuery appends a single query parameter to a path.
func withQuery(path, key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	return path + "?" + q.Encode()
}
