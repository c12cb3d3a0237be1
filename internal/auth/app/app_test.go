package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	return Config{
		JWTKey:               "app-test-signing-key",
		JWTIssuer:            "HotelListingApi",
		JWTAudience:          "HotelListingApiClient",
		JWTDurationMinutes:   5,
		BootstrapToken:       "boot",
		DatabaseFile:         filepath.Join(dir, "auth.db"),
		PepperFile:           filepath.Join(dir, "pepper"),
		TokenStore:           TokenStoreSQLite,
		RefreshTokenLifespan: time.Hour,
		PasswordPolicy:       service.DefaultPasswordPolicy(),
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

func TestApplication_EndToEnd(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *Config)
	}{
		{"sqlite slots", func(t *testing.T, cfg *Config) {}},
		{"redis slots", func(t *testing.T, cfg *Config) {
			mr := miniredis.RunT(t)
			cfg.TokenStore = TokenStoreRedis
			cfg.RedisURL = "redis://" + mr.Addr()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.setup(t, &cfg)

			application, err := New(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = application.close() })

			srv := httptest.NewServer(application.Handler())
			t.Cleanup(srv.Close)
			client := authsdk.NewSDKClient(srv.URL)
			ctx := t.Context()

			ready, err := client.GetReadiness(ctx)
			require.NoError(t, err)
			require.Equal(t, "ok", ready.Checks.TokenStore)

			require.NoError(t, client.Bootstrap(ctx, "boot", authsdk.RegisterRequest{
				Email: "root@x.io", Password: "secret1", FirstName: "Root", LastName: "Admin",
			}))

			first, err := client.Login(ctx, "root@x.io", "secret1")
			require.NoError(t, err)
			second, err := client.RefreshToken(ctx, *first)
			require.NoError(t, err)
			require.NotEqual(t, first.RefreshToken, second.RefreshToken)

			_, err = client.RefreshToken(ctx, *first)
			require.ErrorIs(t, err, authsdk.ErrUnauthorized)
		})
	}
}

func TestApplication_RedisRateLimitsSharedAcrossInstances(t *testing.T) {
	prev := httpx.StrictLimit
	httpx.StrictLimit = httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	t.Cleanup(func() { httpx.StrictLimit = prev })

	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.TokenStore = TokenStoreRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	var clients []*authsdk.SDKClient
	for range 2 {
		application, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = application.close() })

		srv := httptest.NewServer(application.Handler())
		t.Cleanup(srv.Close)
		clients = append(clients, authsdk.NewSDKClient(srv.URL))
	}

	ctx := t.Context()
	for _, client := range clients {
		_, err := client.Login(ctx, "nobody@x.io", "secret1")
		require.ErrorIs(t, err, authsdk.ErrUnauthorized)
	}

	// The first instance only served one attempt but sees both.
	_, err := clients[0].Login(ctx, "nobody@x.io", "secret1")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 429, apiErr.StatusCode)
	require.NotEmpty(t, mr.Keys())
}

func TestApplication_ServeStopsOnCancel(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenStore = TokenStoreRedis
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := New(cfg)
	require.Error(t, err)
	require.ErrorContains(t, err, "token store")
}
