package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/budgetndiostory/bns-api/internal/ports"
)

// UserAdmin performs role and deletion changes outside the sign-in flow.
// AuthService embeds it; operator tooling uses it without an identity provider.
type UserAdmin struct {
	store  ports.IdentityStore
	logger *slog.Logger
}

// NewUserAdmin constructs a UserAdmin over store.
func NewUserAdmin(store ports.IdentityStore, logger *slog.Logger) (*UserAdmin, error) {
	if store == nil {
		return nil, errors.New("IdentityStore is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserAdmin{store: store, logger: logger.With("component", "user_admin")}, nil
}

// DeleteAccount removes a user and, through the store's cascade, their accounts and sessions.
func (s *UserAdmin) DeleteAccount(ctx context.Context, userID string) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err = s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

// DeleteUserByEmail is the operator form of DeleteAccount.
func (s *UserAdmin) DeleteUserByEmail(ctx context.Context, email string) error {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	return s.DeleteAccount(ctx, u.ID)
}

// SetUserRole assigns role to the user with id.
func (s *UserAdmin) SetUserRole(ctx context.Context, userID string, role domainauth.Role) (*domainauth.User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	u, err := s.store.SetUserRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("set user role: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	s.logger.InfoContext(ctx, "user role changed", "user_id", userID, "role", role)
	return u, nil
}

// SetRole assigns role to the user registered under email.
func (s *UserAdmin) SetRole(ctx context.Context, email string, role domainauth.Role) (*domainauth.User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return s.SetUserRole(ctx, u.ID, role)
}
