package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
	servermw "github.com/tuan28064/Hono-demo/internal/server/middleware"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(servermw.Chain(s.globalStages()...))
	// HEAD falls back to the GET route when none is registered.
	r.Use(chimw.GetHead)

	// Must precede Route/Mount so sub-routers inherit them.
	r.NotFound(s.notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// Health, metrics and admin live at the root only
	health := s.opts.Health
	r.Get("/health", health.HealthHandler)
	r.Get("/health/live", health.LivenessHandler)
	r.Get("/health/ready", health.ReadinessHandler)
	r.Get("/health/startup", health.StartupHandler)

	r.Get("/metrics", MetricsHandler(s.cfg.Metrics.Port))
	s.registerAdminEndpoint()

	s.mountAPI(r)
	if prefix := s.cfg.Server.APIPrefix; prefix != "" {
		r.Route(prefix, s.mountAPI)
	}
}

// mountAPI registers the service API on r. It runs once for the root and
// once for the API prefix.
func (s *Server) mountAPI(r chi.Router) {
	users := handlers.NewUsers(s.opts.Users)
	products := handlers.NewProducts(s.opts.Products)
	protected := handlers.NewProtected(s.opts.Users, s.opts.Products)
	svc := handlers.NewService(config.AppName, s.cfg.Server.APIPrefix, s.startedAt)

	r.Get("/", handlers.Handle(svc.Index))
	r.Get("/hello/{name}", handlers.Handle(svc.Hello))
	r.Get("/error", handlers.Handle(svc.Fail))
	r.Get("/status", handlers.Handle(svc.Status))
	r.Get("/version", handlers.VersionHandler)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", handlers.Handle(users.List))
		r.Post("/", handlers.Handle(users.Create))
		r.Get("/{id}", handlers.Handle(users.Get))
		r.Put("/{id}", handlers.Handle(users.Update))
		r.Delete("/{id}", handlers.Handle(users.Delete))
	})
	r.Get("/search", handlers.Handle(users.Search))

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handlers.Handle(products.List))
		r.Get("/{id}", handlers.Handle(products.Get))
	})

	r.Route("/protected", func(r chi.Router) {
		r.Use(servermw.Chain(servermw.AuthGate(s.opts.Verifier)))
		r.Get("/profile", handlers.Handle(protected.Profile))
		r.Get("/dashboard", handlers.Handle(protected.Dashboard))
	})

	r.With(servermw.Chain(servermw.RateGate(s.opts.Limiter, servermw.RateGateConfig{
		Scope:   "limited",
		Limit:   s.cfg.RateLimit.Limit,
		Window:  s.cfg.RateLimit.Window,
		KeyFunc: s.keyFunc(),
	}))).Get("/limited", handlers.Handle(svc.Limited))
}

// registerAdminEndpoint exposes the gofulmen signal handler when an admin
// token is configured.
func (s *Server) registerAdminEndpoint() {
	adminToken := s.cfg.Auth.AdminToken
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no auth.admin_token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10, // per minute
		RateBurst: 5,
		Manager:   nil, // use default global manager
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
