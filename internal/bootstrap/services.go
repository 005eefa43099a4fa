package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/adapters/reaper"
	httpx "github.com/budgetndiostory/bns-api/internal/http"
	"github.com/budgetndiostory/bns-api/internal/ports"
	"github.com/budgetndiostory/bns-api/internal/service"
	"golang.org/x/sync/errgroup"
)

// ServiceOrchestrationConfig holds what the long-running services share.
type ServiceOrchestrationConfig struct {
	Config *config.AppConfig
	Auth   *service.AuthService
	DB     *sql.DB
	Logger *slog.Logger

	// ReaperRepo overrides the Postgres reaper repository (tests).
	ReaperRepo ports.ReaperRepository
}

// RunServicesWithShutdown runs the enabled services until SIGINT or SIGTERM.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunServices(ctx, cfg)
}

// RunServices starts every enabled service and blocks until ctx is done or one of them fails.
// A failure stops the others; the first error is returned.
func RunServices(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		if cfg.Auth == nil {
			return errors.New("http service requires the auth service")
		}
		var db httpx.Pinger
		if cfg.DB != nil {
			db = cfg.DB
		}
		srv := NewHTTPServer(HTTPServerConfig{
			HTTP:   cfg.Config.HTTP,
			Auth:   cfg.Auth,
			DB:     db,
			Logger: logger,
		})
		g.Go(srv.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.WithoutCancel(gctx))
		})
	}

	if enabled[config.ServiceModeReaper] {
		runner, rerr := reaper.NewRunner(reaper.RunnerOptions{
			DB:     cfg.DB,
			Repo:   cfg.ReaperRepo,
			Config: cfg.Config.Reaper,
			Logger: logger,
		})
		if rerr != nil {
			return fmt.Errorf("create reaper: %w", rerr)
		}
		g.Go(func() error {
			if runErr := runner.Run(gctx); runErr != nil {
				return fmt.Errorf("reaper failed: %w", runErr)
			}
			return nil
		})
	}

	logger.InfoContext(ctx, "services started", "services", GetEnabledServices(cfg.Config))
	err = g.Wait()
	logger.InfoContext(ctx, "services stopped")
	return err
}
