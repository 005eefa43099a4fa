package ports

import (
	"context"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// IdentityAdapter is the persistence contract for users, linked accounts, sessions and
// verification tokens.
//
// Lookups that match nothing return (nil, nil). Errors are *errors.AppError values:
// conflict or foreign_key for constraint violations, unavailable/timeout/canceled when
// the store cannot be reached. Implementations never retry and never cache.
type IdentityAdapter interface {
	CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error)
	GetUser(ctx context.Context, id string) (*domainauth.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domainauth.User, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*domainauth.User, error)
	UpdateUser(ctx context.Context, in domainauth.UserUpdate) (*domainauth.User, error)
	DeleteUser(ctx context.Context, id string) error

	LinkAccount(ctx context.Context, in domainauth.Account) (*domainauth.Account, error)
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	CreateSession(ctx context.Context, in domainauth.Session) (*domainauth.Session, error)
	GetSessionAndUser(ctx context.Context, sessionToken string) (*domainauth.SessionAndUser, error)
	UpdateSession(ctx context.Context, sessionToken string, expires time.Time) (*domainauth.Session, error)
	DeleteSession(ctx context.Context, sessionToken string) error

	CreateVerificationToken(ctx context.Context, in domainauth.VerificationToken) (*domainauth.VerificationToken, error)
	UseVerificationToken(ctx context.Context, identifier, token string) (*domainauth.VerificationToken, error)
}

// RoleAssigner sets a user's role outside the sign-in flow.
type RoleAssigner interface {
	SetUserRole(ctx context.Context, id string, role domainauth.Role) (*domainauth.User, error)
}

// IdentityStore is the full store surface the auth service depends on.
type IdentityStore interface {
	IdentityAdapter
	RoleAssigner
}

// ReaperRepository purges expired identity rows in bounded batches.
type ReaperRepository interface {
	DeleteExpiredSessions(ctx context.Context, grace time.Duration, batchSize int) (int64, error)
	DeleteExpiredVerificationTokens(ctx context.Context, batchSize int) (int64, error)
}
