package data

import (
	"context"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// CreateVerificationToken issues a token, overwriting the expiry of an existing
// (identifier, token) pair instead of failing.
func (a *IdentityAdapter) CreateVerificationToken(
	ctx context.Context,
	in domainauth.VerificationToken,
) (*domainauth.VerificationToken, error) {
	_, err := execAffected(ctx, a.DB, `
		INSERT INTO verification_tokens (identifier, token, expires)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier, token) DO UPDATE SET expires = EXCLUDED.expires`,
		in.Identifier, in.Token, in.Expires,
	)
	if err != nil {
		return nil, storeErr("create verification token", err)
	}
	out := in
	return &out, nil
}

// UseVerificationToken consumes a token in a single DELETE ... RETURNING, so concurrent
// redemptions of the same pair see exactly one winner. A missing or already-used pair
// yields (nil, nil). Expiry is returned, not enforced.
func (a *IdentityAdapter) UseVerificationToken(
	ctx context.Context,
	identifier, token string,
) (*domainauth.VerificationToken, error) {
	row, err := collectOne[verificationTokenRow](ctx, a.DB, `
		DELETE FROM verification_tokens
		WHERE identifier = $1 AND token = $2
		RETURNING identifier, token, expires`,
		identifier, token,
	)
	if err != nil {
		return nil, storeErr("use verification token", err)
	}
	if row == nil {
		return nil, nil
	}
	out := row.toVerificationToken()
	return &out, nil
}
