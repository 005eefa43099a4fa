package data

import (
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// Typed rows for every identity query. Each row type has exactly one mapping
// function into the domain; role defaulting and null handling happen only here.

const userColumns = `id, name, email, email_verified, image, role, created_at, updated_at`

const userColumnsU = `u.id, u.name, u.email, u.email_verified, u.image, u.role, u.created_at, u.updated_at`

const accountColumns = `id, user_id, type, provider, provider_account_id, refresh_token, access_token,
	expires_at, token_type, scope, id_token, session_state`

type userRow struct {
	ID            string     `db:"id"`
	Name          *string    `db:"name"`
	Email         *string    `db:"email"`
	EmailVerified *time.Time `db:"email_verified"`
	Image         *string    `db:"image"`
	Role          *string    `db:"role"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r userRow) toUser() domainauth.User {
	return domainauth.User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		EmailVerified: utcPtr(r.EmailVerified),
		Image:         r.Image,
		Role:          domainauth.NormalizeRole(r.Role),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

// userStampRow holds the columns an update does not supply.
type userStampRow struct {
	Role      *string   `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r userStampRow) toUser(in domainauth.UserUpdate) domainauth.User {
	return userRow{
		ID:            in.ID,
		Name:          in.Name,
		Email:         in.Email,
		EmailVerified: in.EmailVerified,
		Image:         in.Image,
		Role:          r.Role,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}.toUser()
}

type accountRow struct {
	ID                string  `db:"id"`
	UserID            string  `db:"user_id"`
	Type              string  `db:"type"`
	Provider          string  `db:"provider"`
	ProviderAccountID string  `db:"provider_account_id"`
	RefreshToken      *string `db:"refresh_token"`
	AccessToken       *string `db:"access_token"`
	ExpiresAt         *int64  `db:"expires_at"`
	TokenType         *string `db:"token_type"`
	Scope             *string `db:"scope"`
	IDToken           *string `db:"id_token"`
	SessionState      *string `db:"session_state"`
}

func (r accountRow) toAccount() domainauth.Account {
	return domainauth.Account{
		ID:                r.ID,
		UserID:            r.UserID,
		Type:              domainauth.AccountType(r.Type),
		Provider:          r.Provider,
		ProviderAccountID: r.ProviderAccountID,
		RefreshToken:      r.RefreshToken,
		AccessToken:       r.AccessToken,
		ExpiresAt:         r.ExpiresAt,
		TokenType:         r.TokenType,
		Scope:             r.Scope,
		IDToken:           r.IDToken,
		SessionState:      r.SessionState,
	}
}

// sessionUserRow is the joined sessions ⋈ users row. The session's user_id is u.id.
type sessionUserRow struct {
	SessionToken  string     `db:"session_token"`
	Expires       time.Time  `db:"expires"`
	ID            string     `db:"id"`
	Name          *string    `db:"name"`
	Email         *string    `db:"email"`
	EmailVerified *time.Time `db:"email_verified"`
	Image         *string    `db:"image"`
	Role          *string    `db:"role"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r sessionUserRow) toSessionAndUser() domainauth.SessionAndUser {
	user := userRow{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		Image:         r.Image,
		Role:          r.Role,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}.toUser()
	return domainauth.SessionAndUser{
		Session: domainauth.Session{
			SessionToken: r.SessionToken,
			UserID:       r.ID,
			Expires:      r.Expires.UTC(),
		},
		User: user,
	}
}

type verificationTokenRow struct {
	Identifier string    `db:"identifier"`
	Token      string    `db:"token"`
	Expires    time.Time `db:"expires"`
}

func (r verificationTokenRow) toVerificationToken() domainauth.VerificationToken {
	return domainauth.VerificationToken{
		Identifier: r.Identifier,
		Token:      r.Token,
		Expires:    r.Expires.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
