package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/phonecheck/internal/infrastructure/config"
	httperrors "3tcapital/phonecheck/internal/infrastructure/http"
	"3tcapital/phonecheck/internal/infrastructure/http/middleware"
)

// Server wires the router, middleware chain and HTTP listener.
type Server struct {
	cfg        config.AppConfig
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options holds the handlers mounted by the server. Only HealthHandler is
// required; a missing lookup handler answers 503.
type Options struct {
	Config         config.AppConfig
	Logger         *slog.Logger
	HealthHandler  http.Handler
	CheckHandler   http.Handler
	FieldHandler   http.Handler
	HistoryHandler http.Handler
	MetricsHandler http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("init authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.ClientMetadata)
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/phones/check", orUnavailable(opts.CheckHandler, opts.Logger))
		r.Method(http.MethodGet, "/phones/{number}/fields/{field}", orUnavailable(opts.FieldHandler, opts.Logger))
		r.Method(http.MethodGet, "/history", orUnavailable(opts.HistoryHandler, opts.Logger))
	})

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{cfg: opts.Config, log: opts.Logger, httpServer: srv, auth: auth}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		s.log.Info("HTTP server shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the JWKS refresher.
func (s *Server) Close() {
	s.auth.Close()
}

func orUnavailable(h http.Handler, log *slog.Logger) http.Handler {
	if h != nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Service unavailable", []string{"lookup service is not configured"}, log)
	})
}
