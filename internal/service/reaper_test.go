package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestReaper(t *testing.T, repo *mocks.MockReaperRepository, cfg config.ReaperConfig) *ReaperService {
	t.Helper()
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg, Logger: slog.Default()})
	require.NoError(t, err)
	return svc
}

func TestNewReaperService(t *testing.T) {
	t.Run("valid options", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   mocks.NewMockReaperRepository(ctrl),
			Config: config.ReaperConfig{Interval: time.Minute, BatchSize: 10},
			Logger: slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("missing repo", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Config: config.ReaperConfig{BatchSize: 10}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ReaperRepository is required")
	})

	t.Run("zero batch size", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := NewReaperService(ReaperServiceOptions{Repo: mocks.NewMockReaperRepository(ctrl)})
		require.Error(t, err)
	})
}

func TestReaperService_RunOnce_DrainsBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)
	cfg := config.ReaperConfig{Interval: time.Minute, SessionGrace: time.Hour, BatchSize: 100}

	gomock.InOrder(
		repo.EXPECT().DeleteExpiredSessions(gomock.Any(), time.Hour, 100).Return(int64(100), nil),
		repo.EXPECT().DeleteExpiredSessions(gomock.Any(), time.Hour, 100).Return(int64(100), nil),
		repo.EXPECT().DeleteExpiredSessions(gomock.Any(), time.Hour, 100).Return(int64(7), nil),
	)
	repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), 100).Return(int64(3), nil)

	res, err := newTestReaper(t, repo, cfg).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(207), res.Sessions)
	assert.Equal(t, int64(3), res.VerificationTokens)
}

func TestReaperService_RunOnce_StepFailureDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)
	cfg := config.ReaperConfig{Interval: time.Minute, BatchSize: 50}

	repo.EXPECT().DeleteExpiredSessions(gomock.Any(), time.Duration(0), 50).Return(int64(0), errors.New("db down"))
	repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), 50).Return(int64(4), nil)

	res, err := newTestReaper(t, repo, cfg).RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete expired sessions")
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, int64(4), res.VerificationTokens)
}

func TestReaperService_RunOnce_ContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)
	cfg := config.ReaperConfig{Interval: time.Minute, BatchSize: 10}

	repo.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), context.Canceled)
	repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), gomock.Any()).Return(int64(0), context.Canceled)

	_, err := newTestReaper(t, repo, cfg).RunOnce(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaperService_drain_StopsOnContextBetweenBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)
	svc := newTestReaper(t, repo, config.ReaperConfig{Interval: time.Minute, BatchSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	total, err := svc.drain(ctx, func(context.Context) (int64, error) {
		calls++
		cancel()
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, calls)
}

func TestReaperService_Run(t *testing.T) {
	t.Run("runs on ticks and stops on cancel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		cfg := config.ReaperConfig{Interval: 50 * time.Millisecond, BatchSize: 10}

		sessionCalls := make(chan struct{}, 64)
		repo.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any(), 10).
			DoAndReturn(func(context.Context, time.Duration, int) (int64, error) {
				sessionCalls <- struct{}{}
				return 0, nil
			}).MinTimes(2)
		repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), 10).Return(int64(0), nil).MinTimes(2)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- newTestReaper(t, repo, cfg).Run(ctx) }()

		for range 2 {
			select {
			case <-sessionCalls:
			case <-time.After(2 * time.Second):
				t.Fatal("reaper did not run")
			}
		}
		// Let the second pass finish its token step before cancelling.
		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("reaper did not stop")
		}
	})

	t.Run("keeps running after errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		cfg := config.ReaperConfig{Interval: 20 * time.Millisecond, BatchSize: 10}

		repo.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(0), errors.New("boom")).AnyTimes()
		repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), gomock.Any()).
			Return(int64(0), errors.New("boom")).AnyTimes()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := newTestReaper(t, repo, cfg).Run(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("rejects zero interval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := newTestReaper(t, mocks.NewMockReaperRepository(ctrl), config.ReaperConfig{BatchSize: 1})
		require.Error(t, svc.Run(context.Background()))
	})
}
