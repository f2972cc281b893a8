// Package server wires the dependency graph, the router and the HTTP
// listener.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlite.DB → services → handlers → chi routes
//
// Everything is assembled in New; nothing else in the module constructs
// its own dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/config"
	"github.com/sakif/storelink/internal/handler"
	"github.com/sakif/storelink/internal/metrics"
	"github.com/sakif/storelink/internal/middleware"
	"github.com/sakif/storelink/internal/preview"
	sqliteRepo "github.com/sakif/storelink/internal/repository/sqlite"
	"github.com/sakif/storelink/internal/service"
	"github.com/sakif/storelink/web"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and the resources it owns. The database
// is closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds the router.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it is not confused with the
// modernc.org/sqlite driver.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET       /                      landing (session optional)
//	GET/POST  /signup, /login        credential forms
//	GET       /logout                clear session
//	GET/POST  /dashboard             list and create links      [auth]
//	GET/POST  /edit/{id}             edit an owned link         [auth]
//	POST      /delete/{id}           delete an owned link       [auth]
//	POST      /account/delete        delete account and links   [auth]
//	GET       /auth/github/*         GitHub sign-in, if configured
//	GET       /healthz, /metrics     operations
//	GET       /static/*              embedded assets
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger can print it, and Recoverer runs
// inside the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)

	// === Dependencies ===
	tokens, err := auth.NewTokenService(s.config.Auth.SecretKey, s.config.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	resolver := preview.New(preview.Config{
		Timeout:      s.config.Preview.Timeout,
		UserAgent:    s.config.Preview.UserAgent,
		DefaultImage: s.config.Preview.DefaultImage,
		MaxBodyBytes: s.config.Preview.MaxBodyBytes,
	}, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	}

	secure := s.config.Server.SecureCookies
	render, err := handler.NewRenderer(web.FS, github != nil, secure, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	linkService := service.NewLinkService(s.db, resolver, s.logger)

	pageHandler := handler.NewPageHandler(render, s.db, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, render, secure, s.logger)
	linkHandler := handler.NewLinkHandler(linkService, render, s.logger)

	// === Operations and assets ===
	s.router.Get("/healthz", pageHandler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())
	s.router.Handle("/static/*", http.FileServerFS(web.FS))

	s.router.NotFound(render.NotFound)

	// === Public pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens, authService, secure))

		r.Get("/", pageHandler.HandleLanding)
		r.Get("/signup", authHandler.HandleSignupForm)
		r.Post("/signup", authHandler.HandleSignup)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)

		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === Pages that need a session ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, authService, secure))

		r.Get("/logout", authHandler.HandleLogout)
		r.Get("/dashboard", linkHandler.HandleDashboard)
		r.Post("/dashboard", linkHandler.HandleCreate)
		r.Get("/edit/{id}", linkHandler.HandleEditForm)
		r.Post("/edit/{id}", linkHandler.HandleUpdate)
		r.Post("/delete/{id}", linkHandler.HandleDelete)
		r.Post("/account/delete", authHandler.HandleDeleteAccount)
	})

	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// previews can take up to the fetch timeout before the page is written
		WriteTimeout: s.config.Preview.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.DB.Path),
			slog.Bool("github", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
