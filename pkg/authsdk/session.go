package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Session represents an authenticated session with automatic token refresh.
// When the service answers 401 the session refreshes its token pair once and
// retries the request.
type Session struct {
	client *SDKClient

	mu   sync.RWMutex
	auth AuthResponse
}

// Tokens returns the current token pair.
func (s *Session) Tokens() AuthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	return s.Tokens().AccessToken
}

// Me returns the profile of the session's principal.
func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/account/me", nil)
	if err != nil {
		return nil, err
	}

	var profile ProfileResponse
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RegisterAdmin creates a principal with the Administrator role. The
// session's principal must itself be an Administrator.
func (s *Session) RegisterAdmin(ctx context.Context, req RegisterRequest) error {
	body, err := encodeBody(req)
	if err != nil {
		return err
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/account/admin", body)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

// Refresh exchanges the session's token pair for a new one.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.auth.RefreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}
	next, err := s.client.RefreshToken(ctx, s.auth)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	s.auth = *next
	return nil
}

// doAuthRequest sends the request with the current access token. On 401 it
// refreshes, unless another goroutine already has, and retries once.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body []byte,
) (*http.Response, error) {
	token := s.AccessToken()

	resp, err := s.client.doRequest(ctx, method, path, body, bearer(token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	_ = resp.Body.Close()

	s.mu.Lock()
	if s.auth.AccessToken == token {
		if err := s.refreshLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	token = s.auth.AccessToken
	s.mu.Unlock()

	return s.client.doRequest(ctx, method, path, body, bearer(token))
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
