package auth

// Package auth contains domain-level types for identities, sessions and roles.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleAuthor Role = "author"
	RoleViewer Role = "viewer"
)

// AllRoles lists every valid role, highest privilege first.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleAuthor, RoleViewer}
}

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor, RoleViewer:
		return true
	default:
		return false
	}
}

// Rank orders roles by privilege. Unknown roles rank with viewer.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleAuthor:
		return 1
	default:
		return 0
	}
}

// NormalizeRole maps a stored role value to a valid Role.
// Missing or unrecognized values resolve to RoleViewer, never to anything higher.
func NormalizeRole(raw *string) Role {
	if raw == nil {
		return RoleViewer
	}
	r := Role(*raw)
	if !r.IsValid() {
		return RoleViewer
	}
	return r
}

// Roles is an allow-list of roles.
type Roles []Role

// Contains reports whether r is in the list.
func (rs Roles) Contains(r Role) bool {
	return slices.Contains(rs, r)
}

// User is the identity record shared with the authentication flow.
type User struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Image         *string    `json:"image,omitempty"`
	Role          Role       `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewUser carries the fields a caller may supply when creating a user.
type NewUser struct {
	Name          *string
	Email         *string
	EmailVerified *time.Time
	Image         *string
}

// UserUpdate is the complete desired state of a user's mutable fields.
// Nil fields are written as NULL; there is no "leave unchanged".
type UserUpdate struct {
	ID            string
	Name          *string
	Email         *string
	EmailVerified *time.Time
	Image         *string
}

// AccountType categorizes a linked credential.
type AccountType string

const (
	AccountTypeOAuth AccountType = "oauth"
	AccountTypeOIDC  AccountType = "oidc"
	AccountTypeEmail AccountType = "email"
)

// Account is an external-provider credential linked to a User.
// ExpiresAt is the access token expiry in unix seconds, as providers report it.
type Account struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	Type              AccountType `json:"type"`
	Provider          string      `json:"provider"`
	ProviderAccountID string      `json:"providerAccountId"`
	RefreshToken      *string     `json:"-"`
	AccessToken       *string     `json:"-"`
	ExpiresAt         *int64      `json:"expiresAt,omitempty"`
	TokenType         *string     `json:"tokenType,omitempty"`
	Scope             *string     `json:"scope,omitempty"`
	IDToken           *string     `json:"-"`
	SessionState      *string     `json:"-"`
}

// Session is one authenticated client session, keyed by its opaque token.
type Session struct {
	SessionToken string    `json:"-"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// Expired reports whether the session has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}

// SessionAndUser pairs a session with its owning user. It is never partial.
type SessionAndUser struct {
	Session   Session
	User      User
	Refreshed bool // expiry moved forward while resolving; stores never set it
}

// VerificationToken is a single-use proof for passwordless sign-in.
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}

// Expired reports whether the token has passed its expiry at now.
func (v VerificationToken) Expired(now time.Time) bool {
	return !now.Before(v.Expires)
}

// ProviderTokens is the token material an identity provider returned at sign-in.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	IDToken      string
	Expiry       time.Time
}

// Profile is the authenticated principal returned by an identity provider.
// Adapters map provider-specific claims into this shape.
type Profile struct {
	Provider      string
	Type          AccountType
	Subject       string // provider-scoped account id (e.g. OIDC sub)
	Email         string
	EmailVerified bool
	Name          string
	Image         string
	Groups        []string
	Tokens        ProviderTokens
}
