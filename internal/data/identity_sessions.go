package data

import (
	"context"
	"errors"
	"time"

	"github.com/budgetndiostory/bns-api/internal/data/pgxutil"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/jackc/pgx/v5"
)

// CreateSession stores a session under a fresh row id and returns the session as given.
func (a *IdentityAdapter) CreateSession(ctx context.Context, in domainauth.Session) (*domainauth.Session, error) {
	_, err := execAffected(ctx, a.DB,
		`INSERT INTO sessions (id, session_token, user_id, expires) VALUES ($1, $2, $3, $4)`,
		a.newID(), in.SessionToken, in.UserID, in.Expires,
	)
	if err != nil {
		return nil, storeErr("create session", err)
	}
	out := in
	return &out, nil
}

// GetSessionAndUser resolves a session token and its owner in one joined query.
// Expiry is not checked here; callers decide what an expired session means.
func (a *IdentityAdapter) GetSessionAndUser(ctx context.Context, sessionToken string) (*domainauth.SessionAndUser, error) {
	row, err := collectOne[sessionUserRow](ctx, a.DB, `
		SELECT s.session_token, s.expires, `+userColumnsU+`
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1`,
		sessionToken,
	)
	if err != nil {
		return nil, storeErr("get session and user", err)
	}
	if row == nil {
		return nil, nil
	}
	out := row.toSessionAndUser()
	return &out, nil
}

// UpdateSession moves a session's expiry. The row is read and locked first; a missing
// token yields (nil, nil) and writes nothing. UserID comes from the pre-update row.
func (a *IdentityAdapter) UpdateSession(
	ctx context.Context,
	sessionToken string,
	expires time.Time,
) (*domainauth.Session, error) {
	var out *domainauth.Session
	err := pgxutil.WithPgxTx(ctx, a.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var userID string
			err := tx.QueryRow(ctx,
				`SELECT user_id FROM sessions WHERE session_token = $1 FOR UPDATE`, sessionToken,
			).Scan(&userID)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err = tx.Exec(ctx,
				`UPDATE sessions SET expires = $2 WHERE session_token = $1`, sessionToken, expires,
			); err != nil {
				return err
			}
			out = &domainauth.Session{SessionToken: sessionToken, UserID: userID, Expires: expires}
			return nil
		},
	})
	if err != nil {
		return nil, storeErr("update session", err)
	}
	return out, nil
}

// DeleteSession removes a session by token. A missing token is not an error.
func (a *IdentityAdapter) DeleteSession(ctx context.Context, sessionToken string) error {
	if _, err := execAffected(ctx, a.DB, `DELETE FROM sessions WHERE session_token = $1`, sessionToken); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}
