package httpx

import (
	"net/http"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// Page names rendered by the guarded page handlers.
const (
	PageAdmin     = "admin"
	PageAdminUser = "admin-user"
	PageStudio    = "studio"
)

type pageResponse struct {
	Page   string            `json:"page"`
	User   domainauth.User   `json:"user"`
	Role   domainauth.Role   `json:"role"`
	Params map[string]string `json:"params,omitempty"`
}

// identityPage renders the resolved identity for a guarded page. The page body
// itself is owned by the frontend.
func identityPage(page string, params ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentityFromContext(r.Context())
		if !ok {
			// Only reachable when mounted without RequireRoles.
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		resp := pageResponse{Page: page, User: id.User, Role: id.Role}
		if len(params) > 0 {
			resp.Params = make(map[string]string, len(params))
			for _, p := range params {
				resp.Params[p] = r.PathValue(p)
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// unauthorizedPage gives no reason, so it reads the same for missing and forbidden pages.
func unauthorizedPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":   "unauthorized",
		"message": "You do not have access to this page.",
	})
}

func signedOutPage(signInPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "signed_out",
			"signInUrl": signInPath,
		})
	}
}
