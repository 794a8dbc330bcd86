package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/auth"
	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/core"
	"github.com/tuan28064/Hono-demo/internal/metrics"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/ratelimit"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
	servermw "github.com/tuan28064/Hono-demo/internal/server/middleware"
)

// Options carries every dependency of the server. Nothing is read from
// package-level state.
type Options struct {
	Config   *config.Config
	Users    core.UserRepository
	Products core.ProductRepository

	// Limiter backs the per-route rate gate. Defaults to an in-memory window.
	Limiter ratelimit.Limiter
	// Throttle is the optional global token bucket.
	Throttle *ratelimit.TokenBucket
	// Verifier backs the protected group. Defaults to the configured static token.
	Verifier auth.Verifier
	// Static enables the single-page-application fallback.
	Static fs.FS
	Health *handlers.HealthManager

	StartedAt time.Time
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	cfg       config.Config
	opts      Options
	static    *staticFallback
	startedAt time.Time
}

// New creates a new HTTP server instance
func New(opts Options) (*Server, error) {
	if opts.Users == nil || opts.Products == nil {
		return nil, errors.New("server requires user and product repositories")
	}

	cfg := config.Config{}
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 5
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewWindow()
	}
	if opts.Verifier == nil {
		opts.Verifier = auth.NewStaticToken(cfg.Auth.Token, nil)
	}
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(handlers.AppVersion)
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}

	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		opts:      opts,
		startedAt: opts.StartedAt,
	}
	if opts.Static != nil {
		s.static = newStaticFallback(opts.Static, cfg.Static.Index, cfg.Server.APIPrefix)
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()
	return s, nil
}

// globalStages is the pipeline every request passes through, outermost first.
func (s *Server) globalStages() []servermw.Stage {
	stages := []servermw.Stage{
		servermw.AccessLog(),
		servermw.Recovery(),
		servermw.Metrics(),
		servermw.PrettyJSON(servermw.DefaultPrettyParam),
		servermw.CORS(servermw.CORSOptions{
			AllowedOrigins: s.cfg.CORS.AllowedOrigins,
			AllowedMethods: s.cfg.CORS.AllowedMethods,
			AllowedHeaders: s.cfg.CORS.AllowedHeaders,
			MaxAge:         s.cfg.CORS.MaxAge,
		}),
		servermw.RequestID(),
	}
	if s.opts.Throttle != nil {
		stages = append(stages, servermw.Throttle(s.opts.Throttle, s.keyFunc()))
	}
	return stages
}

func (s *Server) keyFunc() ratelimit.KeyFunc {
	return ratelimit.DefaultKeyFunc(s.cfg.RateLimit.KeyHeader, s.cfg.RateLimit.TrustForwardedFor)
}

// ServeHTTP creates the per-request Values bag and dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := servermw.WithValues(r.Context(), servermw.NewValues())
	s.router.ServeHTTP(w, r.WithContext(ctx))
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      s,
		ReadTimeout:  durationOr(s.cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: durationOr(s.cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(s.cfg.Server.IdleTimeout, 120*time.Second),
	}

	metrics.SetServerStartTime(s.startedAt.Unix())

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("addr", ln.Addr().String()),
			zap.String("api_prefix", s.cfg.Server.APIPrefix),
			zap.Bool("static_fallback", s.static != nil))
	}

	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the dispatcher including the per-request Values bag.
func (s *Server) Handler() http.Handler {
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.Port))
}

// RouteInfo is one registered method/pattern pair.
type RouteInfo struct {
	Method      string
	Pattern     string
	Middlewares int
}

// Routes lists every registered route.
func (s *Server) Routes() ([]RouteInfo, error) {
	var routes []RouteInfo
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Pattern: route, Middlewares: len(middlewares)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk routes: %w", err)
	}
	return routes, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
