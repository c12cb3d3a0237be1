package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the account service
//	@Description	Creates the first Administrator. Only available when a bootstrap token is configured and no principal exists yet.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header	string					true	"Bootstrap token for authorization"
//	@Param			request				body	authsdk.RegisterRequest	true	"Administrator account"
//	@Success		201					"Administrator created"
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token, or system already bootstrapped"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled (no token configured)"
//	@Failure		500					{object}	authsdk.ErrorResponse			"Internal error"
//	@Router			/api/account/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		httpx.WriteError(w, http.StatusNotFound, httpx.ErrorTypeNotFound, "Bootstrap endpoint is not enabled")
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorTypeUnauthorized,
			"Bootstrap token is required in X-Bootstrap-Token header")
		return
	}

	// 3. Parse request body
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// 4. Perform bootstrap
	errs, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		Admin: domain.Registration{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
	})
	switch {
	case errors.Is(err, service.ErrBootstrapDisabled):
		httpx.WriteError(w, http.StatusNotFound, httpx.ErrorTypeNotFound, "Bootstrap endpoint is not enabled")
	case errors.Is(err, service.ErrBootstrapAlready):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorTypeUnauthorized, "System has already been bootstrapped")
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorTypeUnauthorized, "Invalid bootstrap token")
	case err != nil:
		writeFailure(w, r, "bootstrap", err)
	case len(errs) > 0:
		writeValidationErrors(w, errs)
	default:
		httpx.NoCache(w)
		w.WriteHeader(http.StatusCreated)
	}
}
