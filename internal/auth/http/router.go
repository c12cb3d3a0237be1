package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"

	_ "github.com/aussiebroadwan/hotellisting/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	slots            store.TokenSlots
	RateLimiter      httpx.RateLimiter
	AuthService      *service.AuthService
	PrincipalService *service.PrincipalService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	slots store.TokenSlots,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		slots:        slots,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover,
	}

	return r
}

// ApplyRoutes registers every route. Set RateLimiter before calling it.
func (r *Router) ApplyRoutes() {
	r.registerAccount()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(),
			r.RateLimiter.ByIP("swagger", httpx.PublicLimit),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			HotelListing Account API
//	@version		0.1.0
//	@description	Account registration, login and refresh token rotation for the HotelListing API.
//	@description
//	@description				Access tokens are HS256 JWTs. Refresh tokens are opaque, single-use and one per principal.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/hotellisting
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{
		Auth:       r.AuthService,
		Principals: r.PrincipalService,
	}

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /api/account/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			r.RateLimiter.ByIP("register", httpx.StrictLimit),
		),
	)

	// POST /admin - Administrators only, moderate rate limit by user
	r.Mux.Handle("POST /api/account/admin",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterAdmin),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RoleAdministrator),
			r.RateLimiter.ByUser("register-admin", httpx.ModerateLimit),
		),
	)

	// POST /login - strict rate limit by IP + email to slow down brute force
	r.Mux.Handle("POST /api/account/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.RateLimiter.ByIPAndJSONField("login", httpx.StrictLimit, "email"),
		),
	)

	// POST /refresh-token - strict rate limit by IP
	r.Mux.Handle("POST /api/account/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefreshToken),
			r.RateLimiter.ByIP("refresh-token", httpx.StrictLimit),
		),
	)

	// GET /me - authenticated, lenient rate limit by user
	r.Mux.Handle("GET /api/account/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			r.RateLimiter.ByUser("me", httpx.LenientLimit),
		),
	)
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /api/account/bootstrap",
		httpx.Chain(bootstrapHandler,
			r.RateLimiter.ByIP("bootstrap", httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{
		Started: r.startTime,
		Version: r.buildVersion,
		Store:   r.store,
		Slots:   r.slots,
	}

	// Probes get the lenient profile, monitors poll often
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(h.HandleLivez),
			r.RateLimiter.ByIP("livez", httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(h.HandleReadyz),
			r.RateLimiter.ByIP("readyz", httpx.LenientLimit),
		),
	)
}
