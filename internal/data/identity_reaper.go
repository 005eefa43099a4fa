package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/budgetndiostory/bns-api/internal/data/pgxutil"
	"github.com/jackc/pgx/v5"
)

// Two-arg pg_try_advisory_xact_lock(major, minor) keys for purge batches.
// Major key 2000 is reserved for identity reaper operations.
const (
	advisoryLockIdentityMajor     = 2000
	advisoryLockPurgeSessions     = 1
	advisoryLockPurgeVerifyTokens = 2
)

// IdentityReaperRepo deletes expired sessions and verification tokens in bounded batches.
// It is housekeeping only; the authentication path never depends on it having run.
type IdentityReaperRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewIdentityReaperRepo creates a reaper repository. A nil clock means wall time.
func NewIdentityReaperRepo(db *sql.DB, clock TimeProvider) *IdentityReaperRepo {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &IdentityReaperRepo{DB: db, timeProvider: clock}
}

// DeleteExpiredSessions removes up to batchSize sessions that expired more than grace ago.
// Returns 0 without error when another instance holds the purge lock.
func (r *IdentityReaperRepo) DeleteExpiredSessions(ctx context.Context, grace time.Duration, batchSize int) (int64, error) {
	return r.purge(ctx, advisoryLockPurgeSessions, grace, batchSize, `
		DELETE FROM sessions
		WHERE id IN (
			SELECT id FROM sessions
			WHERE expires < $1
			ORDER BY expires
			LIMIT $2
		)`)
}

// DeleteExpiredVerificationTokens removes up to batchSize verification tokens whose expiry is before now.
// The table has no surrogate key, so rows are addressed by ctid.
func (r *IdentityReaperRepo) DeleteExpiredVerificationTokens(ctx context.Context, batchSize int) (int64, error) {
	return r.purge(ctx, advisoryLockPurgeVerifyTokens, 0, batchSize, `
		DELETE FROM verification_tokens
		USING (
			SELECT ctid
			FROM verification_tokens
			WHERE expires < $1
			ORDER BY expires
			LIMIT $2
		) sub
		WHERE verification_tokens.ctid = sub.ctid`)
}

func (r *IdentityReaperRepo) purge(
	ctx context.Context,
	lockMinor int,
	grace time.Duration,
	batchSize int,
	query string,
) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if grace < 0 {
		return 0, errors.New("grace must not be negative")
	}
	cutoff := r.timeProvider.Now().Add(-grace).UTC()

	var rowsAffected int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var locked bool
			if err := tx.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockIdentityMajor, lockMinor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			tag, err := tx.Exec(ctx, query, cutoff, batchSize)
			if err != nil {
				return err
			}
			rowsAffected = tag.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, storeErr("purge expired", err)
	}
	return rowsAffected, nil
}
