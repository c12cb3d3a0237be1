package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the HotelListing account service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new account service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a principal with the User role.
// Validation failures are returned as an *APIError with Errors keyed by code.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) error {
	body, err := encodeBody(req)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/account/register", body, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

// Login exchanges credentials for an access and refresh token pair.
// Bad credentials return an error matching ErrUnauthorized.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := encodeBody(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/account/login", body, nil)
	if err != nil {
		return nil, err
	}

	var auth AuthResponse
	if err := decodeJSON(resp, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	return &auth, nil
}

// RefreshToken presents a previously issued pair and returns a new one. The
// presented refresh token is spent whether or not the call succeeds.
func (c *SDKClient) RefreshToken(ctx context.Context, presented AuthResponse) (*AuthResponse, error) {
	body, err := encodeBody(presented)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/account/refresh-token", body, nil)
	if err != nil {
		return nil, err
	}

	var auth AuthResponse
	if err := decodeJSON(resp, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	return &auth, nil
}

// AuthenticateWithPassword logs in and wraps the result in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, error) {
	auth, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(*auth), nil
}

// NewSession creates an authenticated session from an existing token pair.
// The session refreshes the pair when the service rejects its access token.
func (c *SDKClient) NewSession(auth AuthResponse) *Session {
	return &Session{client: c, auth: auth}
}
