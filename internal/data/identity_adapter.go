package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/budgetndiostory/bns-api/internal/data/cryptoutil"
	"github.com/budgetndiostory/bns-api/internal/data/pgxutil"
	apperrors "github.com/budgetndiostory/bns-api/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdentityAdapter persists users, linked accounts, sessions and verification tokens in Postgres.
//
// It holds no identity state: every call is one round trip (updateSession is one transaction)
// on a pooled connection. Lookups that match nothing return (nil, nil). Constraint and
// connectivity failures come back as *errors.AppError wrapping the driver error; nothing is retried.
type IdentityAdapter struct {
	DB *sql.DB

	enc   cryptoutil.Encryptor
	newID func() string
}

// IdentityAdapterOptions configures NewIdentityAdapter.
type IdentityAdapterOptions struct {
	// Encryptor seals provider tokens at rest. Defaults to storing them unchanged.
	Encryptor cryptoutil.Encryptor
	// NewID overrides row id generation (tests only).
	NewID func() string
}

// NewIdentityAdapter creates an IdentityAdapter over db.
func NewIdentityAdapter(db *sql.DB, opts IdentityAdapterOptions) *IdentityAdapter {
	a := &IdentityAdapter{DB: db, enc: opts.Encryptor, newID: opts.NewID}
	if a.enc == nil {
		a.enc = cryptoutil.PlainEncryptor{}
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a
}

// storeErr annotates a store failure with the operation while keeping the mapped error reachable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, apperrors.MapDBError(err))
}

// collectOne runs a query expected to yield at most one row and maps it into T by column name.
// No rows yields (nil, nil).
func collectOne[T any](ctx context.Context, db *sql.DB, query string, args ...any) (*T, error) {
	var (
		out   T
		found bool
	)
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// execAffected runs a statement and reports the number of rows it touched.
func execAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}
