package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Clark-Hu/movielists/internal/config"
	"github.com/Clark-Hu/movielists/internal/identity"
	"github.com/Clark-Hu/movielists/internal/ratelimit"
	"github.com/Clark-Hu/movielists/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services bundles the core operations the HTTP binding exposes.
type Services struct {
	Lists      *service.ListEngine
	Engagement *service.EngagementService
	Reviews    *service.ReviewAggregator
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	services Services
	tokens   *identity.Tokens
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
// A nil limiter disables rate limiting.
func New(cfg config.Config, health HealthChecker, services Services, tokens *identity.Tokens, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		health:   health,
		services: services,
		tokens:   tokens,
		limiter:  limiter,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/me", s.handleMe)
		r.Get("/library", s.handleGetLibrary)
		r.Get("/engagement", s.handleEngagementSnapshot)
		r.Get("/lists/{listID}", s.handleGetList)

		r.Get("/movies/{movieID}/engagement", s.handleEngagementStatus)
		r.Get("/movies/{movieID}/review", s.handleGetReview)
		r.Get("/movies/{movieID}/rating", s.handleRatingSummary)
		r.Get("/movies/{movieID}/reviews", s.handleMovieReviews)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)

			r.Post("/lists", s.handleCreateList)
			r.Delete("/lists/{listID}", s.handleDeleteList)
			r.Post("/lists/{listID}/items", s.handleAddListItem)
			r.Delete("/list-items/{itemID}", s.handleRemoveListItem)
			r.Post("/movies/{movieID}/seen", s.handleToggleSeen)
			r.Post("/movies/{movieID}/watchlist", s.handleToggleWatchlist)
			r.Put("/movies/{movieID}/review", s.handleSubmitReview)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil || s.health.HealthCheck(ctx) != nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
