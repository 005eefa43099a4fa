package bootstrap

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	"github.com/budgetndiostory/bns-api/internal/mocks"
	mockauth "github.com/budgetndiostory/bns-api/internal/mocks/auth"
	"github.com/budgetndiostory/bns-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	svc, err := BuildAuthService(context.Background(), AuthDeps{
		Auth:   devAuthConfig(),
		Mail:   config.MailConfig{Transport: config.MailTransportLog},
		Store:  mockauth.NewMemoryIdentityStore(),
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return svc
}

func idleReaperRepo(t *testing.T) *mocks.MockReaperRepository {
	t.Helper()
	repo := mocks.NewMockReaperRepository(gomock.NewController(t))
	repo.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
	repo.EXPECT().DeleteExpiredVerificationTokens(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
	return repo
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRunServices_ConfigErrors(t *testing.T) {
	ctx := context.Background()

	require.Error(t, RunServices(ctx, nil))

	err := RunServices(ctx, &ServiceOrchestrationConfig{Config: &config.AppConfig{Services: "scheduler"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service name")

	err = RunServices(ctx, &ServiceOrchestrationConfig{Config: &config.AppConfig{Services: "http"}, Logger: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires the auth service")

	err = RunServices(ctx, &ServiceOrchestrationConfig{Config: &config.AppConfig{Services: "reaper"}, Logger: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create reaper")
}

func TestRunServices_ReaperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &ServiceOrchestrationConfig{
		Config: &config.AppConfig{
			Services: "reaper",
			Reaper:   config.ReaperConfig{Interval: time.Minute, BatchSize: 10},
		},
		ReaperRepo: idleReaperRepo(t),
		Logger:     testLogger(),
	}

	done := make(chan error, 1)
	go func() { done <- RunServices(ctx, cfg) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunServices did not return after cancel")
	}
}

func TestRunServices_HTTPServesUntilCancel(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &ServiceOrchestrationConfig{
		Config: &config.AppConfig{
			Services: "http,reaper",
			HTTP: config.HTTPConfig{
				Addr:              addr,
				SignInPath:        "/auth/signin",
				UnauthorizedPath:  "/unauthorized",
				SignedOutPath:     "/auth/signed-out",
				ReadHeaderTimeout: time.Second,
				ShutdownTimeout:   time.Second,
				AuthRateLimit:     1,
				AuthRateBurst:     5,
			},
			Reaper: config.ReaperConfig{Interval: time.Minute, BatchSize: 10},
		},
		Auth:       newTestAuthService(t),
		ReaperRepo: idleReaperRepo(t),
		Logger:     testLogger(),
	}

	done := make(chan error, 1)
	go func() { done <- RunServices(ctx, cfg) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunServices did not return after cancel")
	}
}

func TestGetEnabledServices(t *testing.T) {
	assert.Equal(t, []string{"http", "reaper"}, GetEnabledServices(&config.AppConfig{Services: "reaper, http"}))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))

	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "http"}))
	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: ""}))
}
