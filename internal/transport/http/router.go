// Package httptransport assembles the public HTTP surface: the middleware
// stack, authentication groups and every module's routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	agendahandler "registro/internal/agenda/handler"
	authhandler "registro/internal/auth/handler"
	billinghandler "registro/internal/billing/handler"
	billingmw "registro/internal/billing/middleware"
	catastrohandler "registro/internal/catastro/handler"
	identidadhandler "registro/internal/identidad/handler"
	personahandler "registro/internal/persona/handler"
	"registro/internal/platform/health"
	rosterhandler "registro/internal/roster/handler"
	id "registro/pkg/domain"
	"registro/pkg/platform/middleware/auth"
	"registro/pkg/platform/middleware/metadata"
	"registro/pkg/platform/middleware/request"
)

const (
	defaultRequestTimeout = 30 * time.Second
	// Batch geo lookups fan out to the cadastre and need more headroom.
	defaultGeoTimeout = 2 * time.Minute
	maxBodyBytes      = 1 << 20
)

// Config carries the transport settings taken from the server config.
type Config struct {
	AllowedOrigins   []string
	TrustedProxies   []string
	SubscriptionGate bool
	RequestTimeout   time.Duration
	GeoTimeout       time.Duration
}

// Deps are the cross-cutting collaborators of the middleware stack.
type Deps struct {
	Validator      auth.JWTValidator
	UserStatus     auth.UserStatusChecker
	Subscriptions  billingmw.SubscriptionChecker
	RequestMetrics *request.Metrics
	Logger         *slog.Logger
}

// Handlers groups the module handlers mounted under /api.
type Handlers struct {
	Auth      *authhandler.Handler
	Personas  *personahandler.Handler
	Rosters   *rosterhandler.Handler
	Agenda    *agendahandler.Handler
	Catastro  *catastrohandler.Handler
	Identidad *identidadhandler.Handler
	Billing   *billinghandler.Handler
	Health    *health.Handler
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config, deps Deps, h Handlers) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.GeoTimeout <= 0 {
		cfg.GeoTimeout = defaultGeoTimeout
	}
	logger := deps.Logger

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.New(cfg.TrustedProxies).Handler)
	r.Use(request.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(request.LatencyMiddleware(deps.RequestMetrics, routePattern))

	h.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(maxBodyBytes))

		r.Group(func(r chi.Router) {
			r.Use(request.Timeout(cfg.RequestTimeout))
			h.Auth.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Validator, deps.UserStatus, logger))

			r.Group(func(r chi.Router) {
				r.Use(request.Timeout(cfg.RequestTimeout))
				h.Auth.RegisterAuthenticated(r)
				h.Agenda.Register(r)
				h.Identidad.Register(r)
				h.Billing.Register(r)
			})

			// Shared registries: every role reads, admins and editors write.
			r.Group(func(r chi.Router) {
				r.Use(request.Timeout(cfg.RequestTimeout))
				r.Use(auth.RequireWriterOnMutations(logger))
				h.Personas.Register(r)
				h.Rosters.Register(r)
				h.Catastro.RegisterPropiedades(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(request.Timeout(cfg.GeoTimeout))
				if cfg.SubscriptionGate {
					r.Use(billingmw.RequireActiveSubscription(deps.Subscriptions, logger))
				}
				h.Catastro.RegisterGeo(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(request.Timeout(cfg.RequestTimeout))
				r.Use(auth.RequireRole(logger, id.RoleAdmin))
				h.Auth.RegisterAdmin(r)
			})
		})
	})

	return r
}

// routePattern labels latency metrics with the matched chi pattern so path
// parameters do not explode cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
