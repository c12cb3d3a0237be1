package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/aussiebroadwan/hotellisting/pkg/result"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type AccountHandler struct {
	Auth       *service.AuthService
	Principals *service.PrincipalService
}

// HandleRegister creates a principal with the User role.
//
//	@Summary		Register a new account
//	@Description	Creates a principal with the User role. Validation failures are keyed by code, e.g. DuplicateEmail or PasswordTooShort.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.RegisterRequest	true	"Account details"
//	@Success		200		"Account created"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Validation failed"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal error"
//	@Router			/api/account/register [post].
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, domain.RoleUser)
}

// HandleRegisterAdmin creates a principal with the Administrator role.
//
//	@Summary		Register a new administrator
//	@Description	Creates a principal with the Administrator role. The caller must be an Administrator.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body	authsdk.RegisterRequest	true	"Account details"
//	@Success		200		"Account created"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Validation failed"
//	@Failure		401		"Missing or invalid access token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Caller is not an Administrator"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/account/admin [post].
func (h *AccountHandler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, domain.RoleAdministrator)
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request, role string) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	errs, err := h.Auth.Register(r.Context(), domain.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, role)
	if err != nil {
		writeFailure(w, r, "register", err, slog.String("email", req.Email))
		return
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleLogin exchanges credentials for a token pair.
//
//	@Summary		Log in
//	@Description	Verifies the credentials and returns a signed access token and a single-use refresh token.
//	@Description	Any previously issued refresh token for the principal stops working.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse			"Token pair"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Malformed request"
//	@Failure		401		"Wrong email or password"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/account/login [post].
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse(errs))
		return
	}

	resp, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, "login", err, slog.String("email", req.Email))
		return
	}
	writeAuthResponse(w, resp)
}

// HandleRefreshToken exchanges a token pair for a new one.
//
//	@Summary		Refresh a token pair
//	@Description	Accepts the last AuthResponse, even with an expired access token, and returns a new pair.
//	@Description	A refresh token that is stale, already used or belongs to someone else revokes every refresh token of the principal.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.AuthResponse	true	"Previously issued token pair"
//	@Success		200		{object}	authsdk.AuthResponse	"New token pair"
//	@Failure		401		"Refresh refused"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/account/refresh-token [post].
func (h *AccountHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AuthResponse
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.Auth.RefreshToken(r.Context(), domain.AuthResponse{
		AccessToken:  req.AccessToken,
		PrincipalID:  req.PrincipalID,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		writeFailure(w, r, "refresh_token", err, slog.String("principal_id", req.PrincipalID))
		return
	}
	writeAuthResponse(w, resp)
}

// HandleMe returns the caller's profile.
//
//	@Summary		Current principal
//	@Description	Returns the profile of the principal the access token was issued to.
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ProfileResponse	"Profile"
//	@Failure		401	"Missing or invalid access token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Principal no longer exists"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal error"
//	@Router			/api/account/me [get].
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id := httpx.UserIDFromContext(r.Context())

	res := h.Principals.Get(r.Context(), id)
	switch res.Kind() {
	case result.KindOk:
		p := res.Value()
		httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
			ID:        p.ID,
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Roles:     p.Roles,
		})
	case result.KindNotFound:
		httpx.WriteError(w, http.StatusNotFound, httpx.ErrorTypeNotFound, res.Message())
	default:
		writeFailure(w, r, "me", res.Err(), slog.String("principal_id", id))
	}
}

// decodeBody reads a JSON request body into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorTypeBadRequest, "Request body must be valid JSON")
		return false
	}
	return true
}

// writeAuthResponse answers 200 with the pair, or 401 with an empty body
// when the service refused without an error.
func writeAuthResponse(w http.ResponseWriter, resp *domain.AuthResponse) {
	if resp == nil {
		httpx.NoCache(w)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		AccessToken:  resp.AccessToken,
		PrincipalID:  resp.PrincipalID,
		RefreshToken: resp.RefreshToken,
	})
}

// writeValidationErrors groups validation errors by code into a 400 body.
func writeValidationErrors(w http.ResponseWriter, errs []domain.ValidationError) {
	grouped := make(authsdk.ValidationErrorResponse, len(errs))
	for _, e := range errs {
		grouped[e.Code] = append(grouped[e.Code], e.Description)
	}
	httpx.WriteJSON(w, http.StatusBadRequest, grouped)
}

// writeFailure logs an infrastructure error and answers 500 without details.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("op", op), slog.Any("error", err))
	slogx.FromContext(r.Context()).Error("request failed", attrs...)
	httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorTypeFailure, "internal server error")
}
