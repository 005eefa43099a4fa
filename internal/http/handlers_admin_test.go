package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleRequest(userID, body, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/admin/users/"+userID+"/role", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return withSessionCookie(req, token)
}

func TestAdmin_SetRole(t *testing.T) {
	app := newTestApp(t)
	admin, adminToken := app.seedUser(t, "admin@x.com", domainauth.RoleAdmin)
	target, targetToken := app.seedUser(t, "writer@x.com", domainauth.RoleViewer)

	w := app.do(roleRequest(target.ID, `{"role":"editor"}`, adminToken))
	require.Equal(t, http.StatusOK, w.Code)

	var got domainauth.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domainauth.RoleEditor, got.Role)

	stored, err := app.store.GetUser(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleEditor, stored.Role)

	// The new role governs the target's very next request.
	w = app.do(withSessionCookie(httptest.NewRequest(http.MethodGet, "/admin", nil), targetToken))
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("invalid role", func(t *testing.T) {
		w := app.do(roleRequest(target.ID, `{"role":"superuser"}`, adminToken))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_failed", decodeError(t, w)["error"])
		assert.Contains(t, decodeError(t, w)["message"], "role must be one of")
	})

	t.Run("own role", func(t *testing.T) {
		w := app.do(roleRequest(admin.ID, `{"role":"viewer"}`, adminToken))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := app.do(roleRequest("missing", `{"role":"author"}`, adminToken))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("editor cannot assign roles", func(t *testing.T) {
		w := app.do(roleRequest(admin.ID, `{"role":"viewer"}`, targetToken))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/unauthorized", w.Header().Get("Location"))

		stored, err := app.store.GetUser(context.Background(), admin.ID)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, stored.Role)
	})
}

func TestAdmin_DeleteUser(t *testing.T) {
	app := newTestApp(t)
	admin, adminToken := app.seedUser(t, "admin@x.com", domainauth.RoleAdmin)
	target, targetToken := app.seedUser(t, "reader@x.com", domainauth.RoleViewer)

	del := func(id string) *httptest.ResponseRecorder {
		return app.do(withSessionCookie(httptest.NewRequest(http.MethodDelete, "/admin/users/"+id, nil), adminToken))
	}

	assert.Equal(t, http.StatusNoContent, del(target.ID).Code)
	assert.Equal(t, http.StatusNotFound, del(target.ID).Code)
	assert.Equal(t, http.StatusConflict, del(admin.ID).Code)

	// The deleted user's session went with them.
	w := app.do(withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/session", nil), targetToken))
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}
