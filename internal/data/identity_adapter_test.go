package data

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/internal/data/cryptoutil"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/budgetndiostory/bns-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(db *sql.DB) *IdentityAdapter {
	return NewIdentityAdapter(db, IdentityAdapterOptions{})
}

func mustCreateUser(t *testing.T, a *IdentityAdapter, in domainauth.NewUser) *domainauth.User {
	t.Helper()
	u, err := a.CreateUser(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestIdentityAdapter_CreateUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("defaults role to viewer and stores nulls", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, domainauth.NewUser{Email: testutil.StringPtr("a@x.com")})

			assert.NotEmpty(t, u.ID)
			assert.Equal(t, domainauth.RoleViewer, u.Role)
			assert.Nil(t, u.Name)
			assert.Nil(t, u.EmailVerified)
			assert.False(t, u.CreatedAt.IsZero())
		})
	})

	t.Run("duplicate email is a constraint violation", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			a := newTestAdapter(db)
			email := testutil.UniqueEmail("dup")
			mustCreateUser(t, a, testutil.NewUserBuilder().WithEmail(email).Build())

			u, err := a.CreateUser(context.Background(), testutil.NewUserBuilder().WithEmail(email).Build())
			require.Error(t, err)
			assert.Nil(t, u)
			assert.True(t, apperrors.IsConstraintViolation(err))
			assert.True(t, apperrors.IsConflict(err))
		})
	})

	t.Run("users without email do not collide", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			a := newTestAdapter(db)
			mustCreateUser(t, a, testutil.NewUserBuilder().WithoutEmail().Build())
			mustCreateUser(t, a, testutil.NewUserBuilder().WithoutEmail().Build())
		})
	})
}

func TestIdentityAdapter_ReadPaths_NullRoleIsViewer(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)
		email := testutil.UniqueEmail("role")
		u := mustCreateUser(t, a, testutil.NewUserBuilder().WithEmail(email).Build())

		// An unknown stored value is treated the same as NULL.
		_, err := db.ExecContext(ctx, `UPDATE users SET role = 'superuser' WHERE id = $1`, u.ID)
		require.NoError(t, err)

		acc, err := a.LinkAccount(ctx, testutil.NewAccountBuilder(u.ID).WithProvider("google", "role-g").Build())
		require.NoError(t, err)
		sess := testutil.NewSession(u.ID, time.Now().Add(time.Hour))
		_, err = a.CreateSession(ctx, sess)
		require.NoError(t, err)

		byID, err := a.GetUser(ctx, u.ID)
		require.NoError(t, err)
		byEmail, err := a.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		byAccount, err := a.GetUserByAccount(ctx, acc.Provider, acc.ProviderAccountID)
		require.NoError(t, err)
		sau, err := a.GetSessionAndUser(ctx, sess.SessionToken)
		require.NoError(t, err)

		for _, got := range []*domainauth.User{byID, byEmail, byAccount, &sau.User} {
			assert.Equal(t, domainauth.RoleViewer, got.Role)
		}
	})
}

func TestIdentityAdapter_GetUser_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)

		u, err := a.GetUser(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, u)

		u, err = a.GetUserByEmail(ctx, "nobody@example.test")
		require.NoError(t, err)
		assert.Nil(t, u)

		u, err = a.GetUserByAccount(ctx, "google", "missing")
		require.NoError(t, err)
		assert.Nil(t, u)
	})
}

func TestIdentityAdapter_UpdateUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("overwrites every mutable field", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, testutil.NewUserBuilder().WithName("Old").WithImage("old.png").Build())
			_, err := a.SetUserRole(ctx, u.ID, domainauth.RoleEditor)
			require.NoError(t, err)

			verified := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
			newEmail := testutil.UniqueEmail("new")
			got, err := a.UpdateUser(ctx, domainauth.UserUpdate{
				ID:            u.ID,
				Name:          testutil.StringPtr("New"),
				Email:         &newEmail,
				EmailVerified: &verified,
			})
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "New", *got.Name)
			assert.Equal(t, newEmail, *got.Email)
			assert.Nil(t, got.Image, "omitted fields are cleared")
			assert.True(t, verified.Equal(*got.EmailVerified))
			assert.Equal(t, domainauth.RoleEditor, got.Role, "role is not touched by updateUser")

			stored, err := a.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, got, stored)
		})
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			got, err := newTestAdapter(db).UpdateUser(context.Background(), domainauth.UserUpdate{
				ID: "00000000-0000-0000-0000-000000000000",
			})
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	})

	t.Run("email taken by another user conflicts", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			a := newTestAdapter(db)
			taken := testutil.UniqueEmail("taken")
			mustCreateUser(t, a, testutil.NewUserBuilder().WithEmail(taken).Build())
			other := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

			_, err := a.UpdateUser(context.Background(), domainauth.UserUpdate{ID: other.ID, Email: &taken})
			assert.True(t, apperrors.IsConstraintViolation(err))
		})
	})
}

func TestIdentityAdapter_DeleteUser_Cascades(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)
		u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

		acc, err := a.LinkAccount(ctx, testutil.NewAccountBuilder(u.ID).Build())
		require.NoError(t, err)
		sess := testutil.NewSession(u.ID, time.Now().Add(time.Hour))
		_, err = a.CreateSession(ctx, sess)
		require.NoError(t, err)

		require.NoError(t, a.DeleteUser(ctx, u.ID))

		gotUser, err := a.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, gotUser)

		gotByAccount, err := a.GetUserByAccount(ctx, acc.Provider, acc.ProviderAccountID)
		require.NoError(t, err)
		assert.Nil(t, gotByAccount)

		sau, err := a.GetSessionAndUser(ctx, sess.SessionToken)
		require.NoError(t, err)
		assert.Nil(t, sau)

		// Deleting again is a no-op.
		require.NoError(t, a.DeleteUser(ctx, u.ID))
	})
}

func TestIdentityAdapter_LinkAccount(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("resolves back to the owning user", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

			_, err := a.LinkAccount(ctx, testutil.NewAccountBuilder(u.ID).WithProvider("github", "gh-1").Build())
			require.NoError(t, err)

			byAccount, err := a.GetUserByAccount(ctx, "github", "gh-1")
			require.NoError(t, err)
			byID, err := a.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, byID, byAccount)
		})
	})

	t.Run("same provider account twice conflicts", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u1 := mustCreateUser(t, a, testutil.NewUserBuilder().Build())
			u2 := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

			_, err := a.LinkAccount(ctx, testutil.NewAccountBuilder(u1.ID).WithProvider("google", "g-dup").Build())
			require.NoError(t, err)
			_, err = a.LinkAccount(ctx, testutil.NewAccountBuilder(u2.ID).WithProvider("google", "g-dup").Build())
			assert.True(t, apperrors.IsConflict(err))
		})
	})

	t.Run("unknown user is a foreign key violation", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			_, err := newTestAdapter(db).LinkAccount(context.Background(),
				testutil.NewAccountBuilder("00000000-0000-0000-0000-000000000000").Build())
			assert.True(t, apperrors.IsForeignKey(err))
			assert.True(t, apperrors.IsConstraintViolation(err))
		})
	})

	t.Run("tokens are sealed at rest and opened on return", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			enc, err := cryptoutil.NewAESGCMEncryptorFromString("test-secret")
			require.NoError(t, err)
			a := NewIdentityAdapter(db, IdentityAdapterOptions{Encryptor: enc})
			u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

			acc, err := a.LinkAccount(ctx,
				testutil.NewAccountBuilder(u.ID).WithTokens("access-1", "refresh-1", "id-1").Build())
			require.NoError(t, err)
			assert.Equal(t, "access-1", *acc.AccessToken)
			assert.Equal(t, "refresh-1", *acc.RefreshToken)

			var stored string
			err = db.QueryRowContext(ctx, `SELECT access_token FROM accounts WHERE id = $1`, acc.ID).Scan(&stored)
			require.NoError(t, err)
			assert.NotEqual(t, "access-1", stored)
			assert.Contains(t, stored, "enc:v1:")
		})
	})
}

func TestIdentityAdapter_UnlinkAccount_LeavesUserAndSession(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)

		u := mustCreateUser(t, a, domainauth.NewUser{Email: testutil.StringPtr("a@x.com")})
		_, err := a.LinkAccount(ctx, testutil.NewAccountBuilder(u.ID).WithProvider("google", "g1").Build())
		require.NoError(t, err)
		expires := time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Microsecond)
		_, err = a.CreateSession(ctx, domainauth.Session{SessionToken: "tok1", UserID: u.ID, Expires: expires})
		require.NoError(t, err)

		sau, err := a.GetSessionAndUser(ctx, "tok1")
		require.NoError(t, err)
		require.NotNil(t, sau)
		assert.Equal(t, u.ID, sau.Session.UserID)
		assert.Equal(t, "a@x.com", *sau.User.Email)
		assert.True(t, expires.Equal(sau.Session.Expires))

		require.NoError(t, a.UnlinkAccount(ctx, "google", "g1"))

		byAccount, err := a.GetUserByAccount(ctx, "google", "g1")
		require.NoError(t, err)
		assert.Nil(t, byAccount)

		still, err := a.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
		sau, err = a.GetSessionAndUser(ctx, "tok1")
		require.NoError(t, err)
		assert.NotNil(t, sau)

		// Unlinking a pair that no longer exists is fine.
		require.NoError(t, a.UnlinkAccount(ctx, "google", "g1"))
	})
}

func TestIdentityAdapter_Sessions(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("update of unknown token returns nil and writes nothing", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)

			got, err := a.UpdateSession(ctx, "never-created", time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Nil(t, got)

			var count int
			require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM sessions`).Scan(&count))
			assert.Zero(t, count)
		})
	})

	t.Run("update moves expiry and keeps the owner", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())
			sess := testutil.NewSession(u.ID, time.Now().Add(time.Hour))
			_, err := a.CreateSession(ctx, sess)
			require.NoError(t, err)

			later := sess.Expires.Add(24 * time.Hour)
			got, err := a.UpdateSession(ctx, sess.SessionToken, later)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, u.ID, got.UserID)
			assert.True(t, later.Equal(got.Expires))

			sau, err := a.GetSessionAndUser(ctx, sess.SessionToken)
			require.NoError(t, err)
			assert.True(t, later.Equal(sau.Session.Expires))
		})
	})

	t.Run("duplicate token conflicts", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())
			sess := testutil.NewSession(u.ID, time.Now().Add(time.Hour))
			_, err := a.CreateSession(ctx, sess)
			require.NoError(t, err)

			_, err = a.CreateSession(ctx, sess)
			assert.True(t, apperrors.IsConflict(err))
		})
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())
			sess := testutil.NewSession(u.ID, time.Now().Add(time.Hour))
			_, err := a.CreateSession(ctx, sess)
			require.NoError(t, err)

			require.NoError(t, a.DeleteSession(ctx, sess.SessionToken))
			require.NoError(t, a.DeleteSession(ctx, sess.SessionToken))

			sau, err := a.GetSessionAndUser(ctx, sess.SessionToken)
			require.NoError(t, err)
			assert.Nil(t, sau)
		})
	})
}

func TestIdentityAdapter_VerificationTokens(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("create twice upserts expiry", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			first := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
			second := first.Add(time.Hour)

			_, err := a.CreateVerificationToken(ctx, domainauth.VerificationToken{Identifier: "a@x.com", Token: "t1", Expires: first})
			require.NoError(t, err)
			_, err = a.CreateVerificationToken(ctx, domainauth.VerificationToken{Identifier: "a@x.com", Token: "t1", Expires: second})
			require.NoError(t, err)

			var (
				count   int
				expires time.Time
			)
			require.NoError(t, db.QueryRowContext(ctx,
				`SELECT count(*), max(expires) FROM verification_tokens WHERE identifier = 'a@x.com'`,
			).Scan(&count, &expires))
			assert.Equal(t, 1, count)
			assert.True(t, second.Equal(expires))
		})
	})

	t.Run("use consumes exactly once", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
			_, err := a.CreateVerificationToken(ctx, domainauth.VerificationToken{Identifier: "a@x.com", Token: "t2", Expires: expires})
			require.NoError(t, err)

			got, err := a.UseVerificationToken(ctx, "a@x.com", "t2")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "t2", got.Token)
			assert.True(t, expires.Equal(got.Expires))

			again, err := a.UseVerificationToken(ctx, "a@x.com", "t2")
			require.NoError(t, err)
			assert.Nil(t, again)
		})
	})

	t.Run("concurrent redemption has one winner", func(t *testing.T) {
		testutil.WithAutoDB(t, func(db *sql.DB) {
			ctx := context.Background()
			a := newTestAdapter(db)
			_, err := a.CreateVerificationToken(ctx, domainauth.VerificationToken{
				Identifier: "race@x.com", Token: "t3", Expires: time.Now().Add(time.Hour),
			})
			require.NoError(t, err)

			const workers = 8
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got, uerr := a.UseVerificationToken(ctx, "race@x.com", "t3")
					if uerr == nil && got != nil {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, wins)
		})
	})
}

func TestIdentityAdapter_SetUserRole(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)
		u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())

		got, err := a.SetUserRole(ctx, u.ID, domainauth.RoleAdmin)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domainauth.RoleAdmin, got.Role)

		missing, err := a.SetUserRole(ctx, "00000000-0000-0000-0000-000000000000", domainauth.RoleAdmin)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestIdentityReaperRepo(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		a := newTestAdapter(db)
		now := time.Now().UTC()
		reaper := NewIdentityReaperRepo(db, NewFixedTimeProvider(now))

		u := mustCreateUser(t, a, testutil.NewUserBuilder().Build())
		stale := testutil.NewSession(u.ID, now.Add(-time.Hour))
		fresh := testutil.NewSession(u.ID, now.Add(time.Hour))
		for _, s := range []domainauth.Session{stale, fresh} {
			_, err := a.CreateSession(ctx, s)
			require.NoError(t, err)
		}
		_, err := a.CreateVerificationToken(ctx, domainauth.VerificationToken{Identifier: "x", Token: "old", Expires: now.Add(-time.Minute)})
		require.NoError(t, err)
		_, err = a.CreateVerificationToken(ctx, domainauth.VerificationToken{Identifier: "x", Token: "new", Expires: now.Add(time.Minute)})
		require.NoError(t, err)

		n, err := reaper.DeleteExpiredSessions(ctx, 0, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = reaper.DeleteExpiredVerificationTokens(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		sau, err := a.GetSessionAndUser(ctx, fresh.SessionToken)
		require.NoError(t, err)
		assert.NotNil(t, sau)

		_, err = reaper.DeleteExpiredSessions(ctx, 0, 0)
		assert.Error(t, err)
	})
}
