package inventory

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"inventory/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// Tokens guards the mutating routes when set.
	Tokens *kit.TokenMaker

	WriteLimitPerMin int
}

const limitWindow = 60 * time.Second

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupRoutes(r, s, deps)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps) {
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.list)
	r.Get("/products/{name}", s.get)

	writeLimiter := kit.NewIPRateLimiter(deps.WriteLimitPerMin, limitWindow)

	r.Group(func(wr chi.Router) {
		wr.Use(writeLimiter.Middleware)
		if deps.Tokens != nil {
			wr.Use(kit.RequireToken(deps.Tokens))
		}

		wr.Post("/products", s.add)
		wr.Patch("/products/{name}", s.update)
		wr.Delete("/products/{name}", s.remove)
		wr.Post("/snapshot", s.snapshot)
	})

	if deps.MetricsEnabled && deps.Registry != nil {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}
