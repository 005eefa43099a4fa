package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/budgetndiostory/bns-api/internal/adapters/reaper"
	"github.com/budgetndiostory/bns-api/internal/bootstrap"
	"github.com/budgetndiostory/bns-api/internal/data"
	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/budgetndiostory/bns-api/internal/migrate"
	"github.com/budgetndiostory/bns-api/internal/service"
)

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseTimeoutFlags("migrate", args, os.Stderr)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runMigrationStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseTimeoutFlags("migrate-status", args, os.Stderr)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		versions, statusErr := migrate.Status(ctx, db)
		if statusErr != nil {
			return fmt.Errorf("migration status: %w", statusErr)
		}
		return printMigrationStatus(cmdCtx, versions)
	})
}

func printMigrationStatus(cmdCtx *commandContext, versions []migrate.Version) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "MIGRATION\tSTATUS"); err != nil {
		return err
	}
	pending := 0
	for _, v := range versions {
		status := "applied"
		if !v.Applied {
			status = "pending"
			pending++
		}
		if err := writef(tw, "%s\t%s\n", v.Name, status); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "\n%d migration(s), %d pending\n", len(versions), pending)
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRoleFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	return withUserAdmin(cmdCtx, opts.Timeout, func(ctx context.Context, admin *service.UserAdmin) error {
		return setRole(ctx, cmdCtx, admin, opts)
	})
}

func setRole(ctx context.Context, cmdCtx *commandContext, admin *service.UserAdmin, opts setRoleOptions) error {
	u, err := admin.SetRole(ctx, opts.Email, domainauth.Role(opts.Role))
	if errors.Is(err, service.ErrUserNotFound) {
		return fmt.Errorf("no user registered with email %q", opts.Email)
	}
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "%s is now %s (user %s)\n", opts.Email, u.Role, u.ID)
}

func runDeleteUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseDeleteUserFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := confirm(cmdCtx, fmt.Sprintf("About to delete %s with all linked accounts and sessions.", opts.Email)); confirmErr != nil {
			return confirmErr
		}
	}
	return withUserAdmin(cmdCtx, opts.Timeout, func(ctx context.Context, admin *service.UserAdmin) error {
		return deleteUser(ctx, cmdCtx, admin, opts)
	})
}

func deleteUser(ctx context.Context, cmdCtx *commandContext, admin *service.UserAdmin, opts deleteUserOptions) error {
	err := admin.DeleteUserByEmail(ctx, opts.Email)
	if errors.Is(err, service.ErrUserNotFound) {
		return fmt.Errorf("no user registered with email %q", opts.Email)
	}
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "deleted %s\n", opts.Email)
}

func runPurgeExpired(cmdCtx *commandContext, args []string) error {
	opts, err := parseTimeoutFlags("purge-expired", args, os.Stderr)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		runner, runnerErr := reaper.NewRunner(reaper.RunnerOptions{
			DB:     db,
			Config: cmdCtx.Config.Reaper,
			Logger: cmdCtx.Logger,
		})
		if runnerErr != nil {
			return runnerErr
		}
		res, runErr := runner.RunOnce(ctx)
		if runErr != nil {
			return fmt.Errorf("purge expired rows: %w", runErr)
		}
		return writef(cmdCtx.Out, "deleted %d session(s) and %d verification token(s)\n", res.Sessions, res.VerificationTokens)
	})
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBResetFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	pg := cmdCtx.Config.Postgres
	if remoteErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "drop and recreate the public schema"); remoteErr != nil {
		return remoteErr
	}
	if !opts.Yes {
		msg := fmt.Sprintf("About to reset database %q on %s:%d. Every user, account and session will be lost.", pg.Name, pg.Host, pg.Port)
		if confirmErr := confirm(cmdCtx, msg); confirmErr != nil {
			return confirmErr
		}
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("dropping public schema", "database", pg.Name)
		if resetErr := resetSchema(ctx, cmdCtx, db); resetErr != nil {
			return resetErr
		}
		cmdCtx.Logger.Info("re-running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("database reset completed successfully")
		return nil
	})
}

func resetSchema(ctx context.Context, cmdCtx *commandContext, db *sql.DB) error {
	statements := resetStatements(cmdCtx.Config.Postgres.User)
	for _, stmt := range statements {
		cmdCtx.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func resetStatements(user string) []string {
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if user = strings.TrimSpace(user); user != "" && !strings.EqualFold(user, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(user))
	}
	return statements
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// withUserAdmin opens the identity store. Role and delete operations never read provider
// tokens, so no encryptor is needed.
func withUserAdmin(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *service.UserAdmin) error,
) error {
	return withDatabase(cmdCtx, timeout, func(ctx context.Context, db *sql.DB) error {
		admin, err := service.NewUserAdmin(data.NewIdentityAdapter(db, data.IdentityAdapterOptions{}), cmdCtx.Logger)
		if err != nil {
			return err
		}
		return f(ctx, admin)
	})
}
