// Package auth contains hand-written test doubles for the identity ports.
// They are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/budgetndiostory/bns-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider   = (*MockAuthProvider)(nil)
	_ ports.IdentityStore  = (*MemoryIdentityStore)(nil)
	_ ports.RoleMapper     = (*StaticRoleMapper)(nil)
	_ ports.Mailer         = (*RecordingMailer)(nil)
	_ ports.SignInThrottle = (*CountingThrottle)(nil)
)

// MockAuthProvider simulates an IdP with deterministic state/nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error)

	ProviderName string
	AuthURL      string
	Profile      domainauth.Profile

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider that signs in a fixed Google profile.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		ProviderName: "google",
		AuthURL:      "https://mock-idp/auth",
		Profile: domainauth.Profile{
			Provider:      "google",
			Type:          domainauth.AccountTypeOIDC,
			Subject:       "g1",
			Email:         "a@x.com",
			EmailVerified: true,
			Name:          "Amina Wanjiru",
			Groups:        []string{"writers"},
			Tokens:        domainauth.ProviderTokens{AccessToken: "at", TokenType: "Bearer"},
		},
	}
}

func (m *MockAuthProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	p := m.Profile
	if p.Provider == "" {
		p.Provider = m.Name()
	}
	return p, nil
}

// MemoryIdentityStore is an in-memory IdentityStore. It enforces the same uniqueness,
// foreign key and cascade rules as the Postgres schema and returns the same error codes.
type MemoryIdentityStore struct {
	mu       sync.Mutex
	users    map[string]domainauth.User
	accounts map[string]domainauth.Account // provider + "\x00" + providerAccountID
	sessions map[string]domainauth.Session
	tokens   map[string]domainauth.VerificationToken // identifier + "\x00" + token
	seq      int

	// Now stamps created_at/updated_at. Defaults to time.Now.
	Now func() time.Time
	// Err, when set, is returned by every call. Use it to simulate an unavailable store.
	Err error
}

// NewMemoryIdentityStore creates an empty store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		users:    make(map[string]domainauth.User),
		accounts: make(map[string]domainauth.Account),
		sessions: make(map[string]domainauth.Session),
		tokens:   make(map[string]domainauth.VerificationToken),
	}
}

func pairKey(a, b string) string { return a + "\x00" + b }

func (m *MemoryIdentityStore) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *MemoryIdentityStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *MemoryIdentityStore) emailTaken(email *string, except string) bool {
	if email == nil {
		return false
	}
	for id, u := range m.users {
		if id != except && u.Email != nil && *u.Email == *email {
			return true
		}
	}
	return false
}

// Users returns every stored user (test inspection).
func (m *MemoryIdentityStore) Users() []domainauth.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out
}

// Accounts returns every linked account (test inspection).
func (m *MemoryIdentityStore) Accounts() []domainauth.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out
}

// SessionCount reports how many sessions are stored.
func (m *MemoryIdentityStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// TokenCount reports how many verification tokens are stored.
func (m *MemoryIdentityStore) TokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *MemoryIdentityStore) CreateUser(_ context.Context, in domainauth.NewUser) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.emailTaken(in.Email, "") {
		return nil, apperrors.Conflict("A user with this email already exists.")
	}
	now := m.now()
	u := domainauth.User{
		ID:            m.nextID("user"),
		Name:          in.Name,
		Email:         in.Email,
		EmailVerified: in.EmailVerified,
		Image:         in.Image,
		Role:          domainauth.RoleViewer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *MemoryIdentityStore) GetUser(_ context.Context, id string) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryIdentityStore) GetUserByEmail(_ context.Context, email string) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryIdentityStore) GetUserByAccount(_ context.Context, provider, providerAccountID string) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.accounts[pairKey(provider, providerAccountID)]
	if !ok {
		return nil, nil
	}
	u, ok := m.users[a.UserID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryIdentityStore) UpdateUser(_ context.Context, in domainauth.UserUpdate) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[in.ID]
	if !ok {
		return nil, nil
	}
	if m.emailTaken(in.Email, in.ID) {
		return nil, apperrors.Conflict("A user with this email already exists.")
	}
	u.Name, u.Email, u.EmailVerified, u.Image = in.Name, in.Email, in.EmailVerified, in.Image
	u.UpdatedAt = m.now()
	m.users[u.ID] = u
	return &u, nil
}

func (m *MemoryIdentityStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.users, id)
	for k, a := range m.accounts {
		if a.UserID == id {
			delete(m.accounts, k)
		}
	}
	for k, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, k)
		}
	}
	return nil
}

func (m *MemoryIdentityStore) SetUserRole(_ context.Context, id string, role domainauth.Role) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = domainauth.NormalizeRole((*string)(&role))
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

func (m *MemoryIdentityStore) LinkAccount(_ context.Context, in domainauth.Account) (*domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, ok := m.users[in.UserID]; !ok {
		return nil, apperrors.ForeignKey("Referenced User does not exist.")
	}
	k := pairKey(in.Provider, in.ProviderAccountID)
	if _, ok := m.accounts[k]; ok {
		return nil, apperrors.Conflict("This provider account is already linked to a user.")
	}
	in.ID = m.nextID("account")
	m.accounts[k] = in
	return &in, nil
}

func (m *MemoryIdentityStore) UnlinkAccount(_ context.Context, provider, providerAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.accounts, pairKey(provider, providerAccountID))
	return nil
}

func (m *MemoryIdentityStore) CreateSession(_ context.Context, in domainauth.Session) (*domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, ok := m.users[in.UserID]; !ok {
		return nil, apperrors.ForeignKey("Referenced User does not exist.")
	}
	if _, ok := m.sessions[in.SessionToken]; ok {
		return nil, apperrors.Conflict("Session token already in use.")
	}
	m.sessions[in.SessionToken] = in
	return &in, nil
}

func (m *MemoryIdentityStore) GetSessionAndUser(_ context.Context, sessionToken string) (*domainauth.SessionAndUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.sessions[sessionToken]
	if !ok {
		return nil, nil
	}
	u, ok := m.users[s.UserID]
	if !ok {
		return nil, nil
	}
	return &domainauth.SessionAndUser{Session: s, User: u}, nil
}

func (m *MemoryIdentityStore) UpdateSession(_ context.Context, sessionToken string, expires time.Time) (*domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.sessions[sessionToken]
	if !ok {
		return nil, nil
	}
	s.Expires = expires
	m.sessions[sessionToken] = s
	return &s, nil
}

func (m *MemoryIdentityStore) DeleteSession(_ context.Context, sessionToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.sessions, sessionToken)
	return nil
}

func (m *MemoryIdentityStore) CreateVerificationToken(
	_ context.Context,
	in domainauth.VerificationToken,
) (*domainauth.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.tokens[pairKey(in.Identifier, in.Token)] = in
	return &in, nil
}

func (m *MemoryIdentityStore) UseVerificationToken(
	_ context.Context,
	identifier, token string,
) (*domainauth.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	k := pairKey(identifier, token)
	vt, ok := m.tokens[k]
	if !ok {
		return nil, nil
	}
	delete(m.tokens, k)
	return &vt, nil
}

// StaticRoleMapper returns Role for every group set.
type StaticRoleMapper struct {
	Role domainauth.Role
}

func (m StaticRoleMapper) Map(_ []string) domainauth.Role {
	if m.Role == "" {
		return domainauth.RoleViewer
	}
	return m.Role
}

// RecordingMailer captures sign-in emails instead of sending them.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []ports.SignInEmail
	Err  error
}

func (r *RecordingMailer) SendSignIn(_ context.Context, msg ports.SignInEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

// Last returns the most recent message, or false when nothing was sent.
func (r *RecordingMailer) Last() (ports.SignInEmail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return ports.SignInEmail{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}

// CountingThrottle allows Limit attempts per key. A zero Limit allows everything.
type CountingThrottle struct {
	Limit int

	mu     sync.Mutex
	counts map[string]int
}

func (c *CountingThrottle) Allow(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[key]++
	return c.Limit == 0 || c.counts[key] <= c.Limit, nil
}
