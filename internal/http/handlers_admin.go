package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/budgetndiostory/bns-api/internal/service"
)

// AdminServiceInterface is the user administration surface.
type AdminServiceInterface interface {
	SetUserRole(ctx context.Context, userID string, role domainauth.Role) (*domainauth.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// AdminHandlers serves the admin user API. Every route runs behind RequireRoles.
type AdminHandlers struct {
	Svc    AdminServiceInterface
	Logger *slog.Logger
}

func (h *AdminHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin editor author viewer"`
}

// SetRole changes a user's role.
// PUT /admin/users/{id}/role {"role": "editor"}.
func (h *AdminHandlers) SetRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req setRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.StructCtx(r.Context(), req); err != nil {
		writeValidationError(w, err)
		return
	}

	// An admin cannot demote themselves and leave the site without one.
	if id, ok := GetIdentityFromContext(r.Context()); ok && id.User.ID == userID {
		WriteError(w, ErrorParams{
			Code:    http.StatusConflict,
			ErrCode: "own_role",
			Err:     errors.New("you cannot change your own role"),
		})
		return
	}

	u, err := h.Svc.SetUserRole(r.Context(), userID, domainauth.Role(req.Role))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit(r, "user role changed", userID, slog.String("role", req.Role))
	WriteJSON(w, http.StatusOK, u)
}

// DeleteUser removes a user with their accounts and sessions.
// DELETE /admin/users/{id}.
func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if id, ok := GetIdentityFromContext(r.Context()); ok && id.User.ID == userID {
		WriteError(w, ErrorParams{
			Code:    http.StatusConflict,
			ErrCode: "own_account",
			Err:     errors.New("delete your own account from account settings"),
		})
		return
	}

	if err := h.Svc.DeleteAccount(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit(r, "user deleted", userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) audit(r *http.Request, msg, userID string, attrs ...any) {
	args := []any{slog.String("user_id", userID)}
	if id, ok := GetIdentityFromContext(r.Context()); ok {
		args = append(args, slog.String("actor_id", id.User.ID))
	}
	h.logger().InfoContext(r.Context(), msg, append(args, attrs...)...)
}

func (h *AdminHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
	case errors.Is(err, service.ErrInvalidRole):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_role", Err: err})
	case apperrors.IsStoreUnavailable(err):
		h.logger().ErrorContext(r.Context(), "admin request failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "unavailable",
			Err:     errors.New("service temporarily unavailable"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "admin request failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("internal error"),
		})
	}
}
