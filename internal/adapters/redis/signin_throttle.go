// Package redis provides Redis-backed adapters shared across service instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignInThrottle limits sign-in attempts per key with a fixed window counter:
// INCR on every attempt and EXPIRE when the window opens. It fails open when Redis errors,
// because a throttle outage must not lock users out.
type SignInThrottle struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// SignInThrottleOptions configures NewSignInThrottle.
type SignInThrottleOptions struct {
	Limit  int
	Window time.Duration
	Prefix string // defaults to "bns:signin:"
	Logger *slog.Logger
}

// NewSignInThrottle creates a throttle over client.
func NewSignInThrottle(client redis.UniversalClient, opts SignInThrottleOptions) (*SignInThrottle, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}
	if opts.Window <= 0 {
		return nil, errors.New("window must be greater than zero")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "bns:signin:"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SignInThrottle{
		client: client,
		prefix: prefix,
		limit:  int64(opts.Limit),
		window: opts.Window,
		logger: logger.With("component", "signin_throttle"),
	}, nil
}

// Allow records one attempt for key and reports whether it is within the window's limit.
func (t *SignInThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := t.incr(ctx, t.prefix+key)
	if err != nil {
		t.logger.WarnContext(ctx, "sign-in throttle unavailable, allowing attempt", "error", err)
		return true, nil
	}
	return n <= t.limit, nil
}

func (t *SignInThrottle) incr(ctx context.Context, key string) (int64, error) {
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX keeps the window anchored at the first attempt.
	pipe.ExpireNX(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis throttle: %w", err)
	}
	return incr.Val(), nil
}

// NoopThrottle allows every attempt. It is used when throttling is disabled.
type NoopThrottle struct{}

func (NoopThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
