package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/ports"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo   ports.ReaperRepository // Required: reaper repository
	Config config.ReaperConfig    // Required: reaper configuration
	Logger *slog.Logger           // Optional: structured logger
}

// ReaperService purges identity rows nobody can use any more.
//
// This service manages:
// - Deleting sessions whose expiry passed more than SessionGrace ago.
// - Deleting verification tokens whose expiry has passed.
type ReaperService struct {
	repo   ports.ReaperRepository
	config config.ReaperConfig
	logger *slog.Logger
}

// CleanupResult reports how many rows one cleanup pass deleted.
type CleanupResult struct {
	Sessions           int64
	VerificationTokens int64
	Elapsed            time.Duration
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	if opts.Config.BatchSize <= 0 {
		return nil, errors.New("reaper batch size must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"session_grace", opts.Config.SessionGrace,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &ReaperService{
		repo:   opts.Repo,
		config: opts.Config,
		logger: logger,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// It performs cleanup operations at the configured interval.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return errors.New("reaper interval must be positive")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run cleanup immediately after jitter
	if _, err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// runLoop runs the cleanup loop until context is cancelled.
func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			// Return nil on graceful shutdown to avoid treating it as a failure
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				// Continue running despite errors
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

// RunOnce performs a single cleanup pass over every step.
// A failing step does not stop the others; their errors are joined.
func (s *ReaperService) RunOnce(ctx context.Context) (CleanupResult, error) {
	start := time.Now()
	var (
		result             CleanupResult
		errs               []error
		allContextCanceled = true
	)

	steps := []cleanupStep{
		{fn: s.deleteExpiredSessions, label: "delete expired sessions", count: &result.Sessions},
		{fn: s.deleteExpiredVerificationTokens, label: "delete expired verification tokens", count: &result.VerificationTokens},
	}

	for _, step := range steps {
		outcome := s.executeCleanupStep(ctx, step.fn, step.label)
		*step.count = outcome.count
		if outcome.aggregateErr != nil {
			errs = append(errs, outcome.aggregateErr)
			allContextCanceled = allContextCanceled && outcome.canceled
		}
	}

	result.Elapsed = time.Since(start)
	if s.logger != nil && result.Sessions+result.VerificationTokens > 0 {
		s.logger.InfoContext(ctx, "reaper pass completed",
			"sessions", result.Sessions,
			"verification_tokens", result.VerificationTokens,
			"elapsed", result.Elapsed,
		)
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled && isContextCancellation(joined) {
			return result, context.Canceled
		}
		return result, fmt.Errorf("cleanup failed: %w", joined)
	}

	return result, nil
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	fn    cleanupFunc
	label string
	count *int64
}

type cleanupStepOutcome struct {
	count        int64
	aggregateErr error
	canceled     bool
}

func (s *ReaperService) executeCleanupStep(
	ctx context.Context,
	fn cleanupFunc,
	label string,
) cleanupStepOutcome {
	count, err := fn(ctx)
	outcome := cleanupStepOutcome{
		count:    count,
		canceled: isContextCancellation(err),
	}
	if err != nil {
		outcome.aggregateErr = fmt.Errorf("%s: %w", label, err)
	}
	return outcome
}

// deleteExpiredSessions loops until a batch comes back empty.
func (s *ReaperService) deleteExpiredSessions(ctx context.Context) (int64, error) {
	return s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.DeleteExpiredSessions(ctx, s.config.SessionGrace, s.config.BatchSize)
	})
}

func (s *ReaperService) deleteExpiredVerificationTokens(ctx context.Context) (int64, error) {
	return s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.DeleteExpiredVerificationTokens(ctx, s.config.BatchSize)
	})
}

// drain repeats batch until it deletes nothing, checking the context between batches.
// A batch that deletes fewer rows than the batch size is the last one.
func (s *ReaperService) drain(ctx context.Context, batch cleanupFunc) (int64, error) {
	var totalCount int64
	for {
		count, err := batch(ctx)
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count < int64(s.config.BatchSize) {
			return totalCount, nil
		}
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
