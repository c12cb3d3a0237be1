package authsdk

import (
	"context"
	"net/http"
)

// Bootstrap creates the first Administrator on an empty service. The token
// must match the service's configured bootstrap token.
func (c *SDKClient) Bootstrap(ctx context.Context, token string, req RegisterRequest) error {
	body, err := encodeBody(req)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/account/bootstrap", body, map[string]string{
		"X-Bootstrap-Token": token,
	})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusCreated)
}
