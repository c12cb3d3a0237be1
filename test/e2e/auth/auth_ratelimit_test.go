//go:build e2e

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies that /api/account/login is rate limited.
// This endpoint has strict limits (5 req/min) to prevent brute force attacks.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := context.Background()

	// Make requests until we hit the rate limit (strict limit is 5 req/min)
	for i := range 5 {
		_, err := client.Login(ctx, "guest@hotellisting.test", "wrongpass1")
		require.ErrorIs(t, err, authsdk.ErrUnauthorized, "Request %d should fail authentication, not rate limiting", i+1)
	}

	_, err := client.Login(ctx, "guest@hotellisting.test", "wrongpass1")
	assertStatus(t, err, http.StatusTooManyRequests, "Should be rate limited after 5 requests")

	// The bucket is per IP and email, so another account is unaffected.
	_, err = client.Login(ctx, "other@hotellisting.test", "wrongpass1")
	require.ErrorIs(t, err, authsdk.ErrUnauthorized, "Other email should not share the bucket")

	t.Logf("Successfully rate limited after 5 requests to /api/account/login")
}

// TestRateLimitBootstrapEndpoint verifies that the /bootstrap endpoint is rate limited.
// This is critical to prevent abuse of the one-time setup endpoint.
func TestRateLimitBootstrapEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := context.Background()

	req := authsdk.RegisterRequest{
		Email:     adminEmail,
		Password:  adminPassword,
		FirstName: "Hotel",
		LastName:  "Admin",
	}

	// First request should fail auth, not rate limit
	err := client.Bootstrap(ctx, "wrong-token", req)
	assertStatus(t, err, http.StatusUnauthorized, "First request should not be rate limited")

	// Make additional requests to hit the rate limit (strict limit is 5 req/min)
	var lastErr error
	for range 5 {
		lastErr = client.Bootstrap(ctx, "wrong-token", req)
		require.Error(t, lastErr)
	}

	// Verify we eventually hit rate limit
	assertStatus(t, lastErr, http.StatusTooManyRequests, "Should be rate limited after multiple requests")
	t.Logf("Successfully rate limited /bootstrap endpoint")
}

// TestRateLimitHealthEndpoints verifies health check endpoints have lenient limits.
// Monitoring systems poll these frequently, so they need higher limits.
func TestRateLimitHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	// Lenient limit is 100 req/min, test we can make 30 requests to both endpoints
	for i := range 30 {
		health, err := client.GetLiveness(t.Context())
		require.NoError(t, err, "Liveness request %d should not be rate limited", i+1)
		require.Equal(t, "ok", health.Status)

		health, err = client.GetReadiness(t.Context())
		require.NoError(t, err, "Readiness request %d should not be rate limited", i+1)
		require.Equal(t, "ok", health.Status)
	}

	t.Logf("Successfully made 30 requests each to /livez and /readyz without rate limiting")
}

// TestRateLimitHeadersPresent verifies that rate limit response includes proper headers.
func TestRateLimitHeadersPresent(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	// We need to use raw HTTP client to inspect headers
	httpClient := &http.Client{}
	body, err := json.Marshal(authsdk.LoginRequest{Email: "guest@hotellisting.test", Password: "wrongpass1"})
	require.NoError(t, err)

	post := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/account/login", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	// Make requests until we hit the rate limit (using direct HTTP calls)
	for range 5 {
		resp := post()
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	// Make one more request that should be rate limited and check headers
	resp := post()
	defer resp.Body.Close()

	// Should be rate limited
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "Should receive 429 status")

	// Verify rate limit headers are present
	retryAfter := resp.Header.Get("Retry-After")
	require.NotEmpty(t, retryAfter, "Should include Retry-After header")

	rateLimit := resp.Header.Get("X-RateLimit-Limit")
	require.NotEmpty(t, rateLimit, "Should include X-RateLimit-Limit header")

	rateLimitWindow := resp.Header.Get("X-RateLimit-Window")
	require.NotEmpty(t, rateLimitWindow, "Should include X-RateLimit-Window header")

	var details authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&details))
	require.Equal(t, "Too Many Requests", details.ErrorType)

	t.Logf("Rate limit headers present: Retry-After=%s, Limit=%s, Window=%s",
		retryAfter, rateLimit, rateLimitWindow)
}
