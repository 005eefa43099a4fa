package data

import (
	"context"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// CreateUser inserts a user with a fresh id. Absent fields are stored as NULL; role stays NULL
// and therefore reads back as viewer. A duplicate email yields a Conflict error.
func (a *IdentityAdapter) CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error) {
	row, err := collectOne[userRow](ctx, a.DB, `
		INSERT INTO users (id, name, email, email_verified, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		a.newID(), in.Name, in.Email, in.EmailVerified, in.Image,
	)
	if err != nil {
		return nil, storeErr("create user", err)
	}
	u := row.toUser()
	return &u, nil
}

// GetUser looks a user up by id.
func (a *IdentityAdapter) GetUser(ctx context.Context, id string) (*domainauth.User, error) {
	return a.getUserWhere(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail looks a user up by exact email.
func (a *IdentityAdapter) GetUserByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	return a.getUserWhere(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetUserByAccount finds the user behind an external login.
func (a *IdentityAdapter) GetUserByAccount(
	ctx context.Context,
	provider, providerAccountID string,
) (*domainauth.User, error) {
	return a.getUserWhere(ctx, "get user by account", `
		SELECT `+userColumnsU+`
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.provider = $1 AND a.provider_account_id = $2`,
		provider, providerAccountID,
	)
}

func (a *IdentityAdapter) getUserWhere(ctx context.Context, op, query string, args ...any) (*domainauth.User, error) {
	row, err := collectOne[userRow](ctx, a.DB, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if row == nil {
		return nil, nil
	}
	u := row.toUser()
	return &u, nil
}

// UpdateUser overwrites name, email, emailVerified and image with the supplied values;
// nil fields become NULL. The result is rebuilt from the input plus the role and
// timestamps returned by the same statement, not re-read. An unknown id yields (nil, nil).
func (a *IdentityAdapter) UpdateUser(ctx context.Context, in domainauth.UserUpdate) (*domainauth.User, error) {
	stamp, err := collectOne[userStampRow](ctx, a.DB, `
		UPDATE users
		SET name = $2, email = $3, email_verified = $4, image = $5
		WHERE id = $1
		RETURNING role, created_at, updated_at`,
		in.ID, in.Name, in.Email, in.EmailVerified, in.Image,
	)
	if err != nil {
		return nil, storeErr("update user", err)
	}
	if stamp == nil {
		return nil, nil
	}
	u := stamp.toUser(in)
	return &u, nil
}

// DeleteUser removes a user; accounts and sessions go with it through ON DELETE CASCADE.
// Deleting an unknown id is not an error.
func (a *IdentityAdapter) DeleteUser(ctx context.Context, id string) error {
	if _, err := execAffected(ctx, a.DB, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return storeErr("delete user", err)
	}
	return nil
}

// SetUserRole assigns a role. It is an operator path outside the authentication flow.
// An unknown id yields (nil, nil).
func (a *IdentityAdapter) SetUserRole(ctx context.Context, id string, role domainauth.Role) (*domainauth.User, error) {
	return a.getUserWhere(ctx, "set user role",
		`UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns, id, string(role))
}
