package data

import (
	"context"
	"fmt"

	"github.com/budgetndiostory/bns-api/internal/data/cryptoutil"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// LinkAccount stores an external credential for an existing user and returns the stored record.
// Uniqueness of (provider, provider_account_id) and the user reference are enforced by the
// store only: a duplicate yields Conflict and an unknown user yields ForeignKey.
func (a *IdentityAdapter) LinkAccount(ctx context.Context, in domainauth.Account) (*domainauth.Account, error) {
	sealed, err := a.sealTokens(in)
	if err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}

	row, err := collectOne[accountRow](ctx, a.DB, `
		INSERT INTO accounts (
			id, user_id, type, provider, provider_account_id,
			refresh_token, access_token, expires_at, token_type, scope, id_token, session_state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+accountColumns,
		a.newID(), in.UserID, string(in.Type), in.Provider, in.ProviderAccountID,
		sealed.RefreshToken, sealed.AccessToken, in.ExpiresAt, in.TokenType, in.Scope,
		sealed.IDToken, in.SessionState,
	)
	if err != nil {
		return nil, storeErr("link account", err)
	}

	out := row.toAccount()
	if err = a.openTokens(&out); err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}
	return &out, nil
}

// UnlinkAccount removes one external credential. The user is untouched, and an
// already-unlinked pair is not an error.
func (a *IdentityAdapter) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	_, err := execAffected(ctx, a.DB,
		`DELETE FROM accounts WHERE provider = $1 AND provider_account_id = $2`,
		provider, providerAccountID,
	)
	if err != nil {
		return storeErr("unlink account", err)
	}
	return nil
}

type sealedTokens struct {
	RefreshToken *string
	AccessToken  *string
	IDToken      *string
}

func (a *IdentityAdapter) sealTokens(in domainauth.Account) (sealedTokens, error) {
	var (
		out sealedTokens
		err error
	)
	if out.RefreshToken, err = cryptoutil.SealPtr(a.enc, in.RefreshToken); err != nil {
		return out, fmt.Errorf("seal refresh token: %w", err)
	}
	if out.AccessToken, err = cryptoutil.SealPtr(a.enc, in.AccessToken); err != nil {
		return out, fmt.Errorf("seal access token: %w", err)
	}
	if out.IDToken, err = cryptoutil.SealPtr(a.enc, in.IDToken); err != nil {
		return out, fmt.Errorf("seal id token: %w", err)
	}
	return out, nil
}

func (a *IdentityAdapter) openTokens(acc *domainauth.Account) error {
	var err error
	if acc.RefreshToken, err = cryptoutil.OpenPtr(a.enc, acc.RefreshToken); err != nil {
		return fmt.Errorf("open refresh token: %w", err)
	}
	if acc.AccessToken, err = cryptoutil.OpenPtr(a.enc, acc.AccessToken); err != nil {
		return fmt.Errorf("open access token: %w", err)
	}
	if acc.IDToken, err = cryptoutil.OpenPtr(a.enc, acc.IDToken); err != nil {
		return fmt.Errorf("open id token: %w", err)
	}
	return nil
}
