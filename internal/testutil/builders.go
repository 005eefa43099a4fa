package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

var fixtureSeq atomic.Int64

// UniqueEmail returns an address no other call in this process has produced.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.test", prefix, fixtureSeq.Add(1))
}

// NewUserBuilder starts a user fixture with a unique email and a name.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{u: domainauth.NewUser{
		Name:  StringPtr("Test User"),
		Email: StringPtr(UniqueEmail("user")),
	}}
}

// UserBuilder builds domainauth.NewUser fixtures.
type UserBuilder struct {
	u domainauth.NewUser
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.u.Name = &name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.u.Email = &email
	return b
}

// WithoutEmail clears the email; the store accepts users with no address.
func (b *UserBuilder) WithoutEmail() *UserBuilder {
	b.u.Email = nil
	return b
}

func (b *UserBuilder) Verified(at time.Time) *UserBuilder {
	b.u.EmailVerified = &at
	return b
}

func (b *UserBuilder) WithImage(image string) *UserBuilder {
	b.u.Image = &image
	return b
}

func (b *UserBuilder) Build() domainauth.NewUser {
	return b.u
}

// NewAccountBuilder starts an OAuth account fixture for userID with a unique provider subject.
func NewAccountBuilder(userID string) *AccountBuilder {
	return &AccountBuilder{a: domainauth.Account{
		UserID:            userID,
		Type:              domainauth.AccountTypeOIDC,
		Provider:          "google",
		ProviderAccountID: fmt.Sprintf("sub-%d", fixtureSeq.Add(1)),
	}}
}

// AccountBuilder builds domainauth.Account fixtures.
type AccountBuilder struct {
	a domainauth.Account
}

func (b *AccountBuilder) WithProvider(provider, providerAccountID string) *AccountBuilder {
	b.a.Provider = provider
	b.a.ProviderAccountID = providerAccountID
	return b
}

func (b *AccountBuilder) WithTokens(access, refresh, idToken string) *AccountBuilder {
	b.a.AccessToken = &access
	b.a.RefreshToken = &refresh
	b.a.IDToken = &idToken
	return b
}

func (b *AccountBuilder) Build() domainauth.Account {
	return b.a
}

// NewSession returns a session fixture with a unique token expiring at expires.
func NewSession(userID string, expires time.Time) domainauth.Session {
	return domainauth.Session{
		SessionToken: fmt.Sprintf("session-%d", fixtureSeq.Add(1)),
		UserID:       userID,
		Expires:      expires.UTC().Truncate(time.Microsecond),
	}
}
