package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// pinger is implemented by slot stores that live outside the principal store.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	Started time.Time
	Version string
	Store   store.Store
	Slots   store.TokenSlots
}

func (h *HealthHandler) response(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.Started).Round(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests, with uptime and build version.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.response("ok"))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the principal database and, when it is separate, the refresh token store.
//	@Description	Returns 503 with the failing check when either is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := &authsdk.HealthChecks{
		Database:   probe(r.Context(), h.Store.Ping),
		TokenStore: "ok",
	}
	if p, ok := h.Slots.(pinger); ok {
		checks.TokenStore = probe(r.Context(), p.Ping)
	}

	resp := h.response("ok")
	resp.Checks = checks
	code := http.StatusOK
	if checks.Database != "ok" || checks.TokenStore != "ok" {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, resp)
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
