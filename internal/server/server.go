// Package server is the composition root: it opens the database, wires
// repositories into services into handlers, and mounts every route.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/config"
	"github.com/Losthero1640/rewear/internal/handler"
	"github.com/Losthero1640/rewear/internal/middleware"
	sqliteRepo "github.com/Losthero1640/rewear/internal/repository/sqlite"
	"github.com/Losthero1640/rewear/internal/service"
	"github.com/Losthero1640/rewear/internal/upload"
)

// Server owns the router, the database connection, and the config. The
// database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
// DB → repositories → services → handlers → routes.
func New(cfg *config.Config, ai assistant.Client, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(ai); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(ai assistant.Client) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	store, err := upload.NewStore(s.cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("creating upload store: %w", err)
	}

	// Stored item photos are public once listed.
	fileServer := http.FileServer(http.Dir(store.Dir()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	catalogService := service.NewCatalogService(s.db, store, ai, s.logger)
	exchangeService := service.NewExchangeService(s.db, s.db, s.db, ai, s.logger)
	moderationService := service.NewModerationService(s.db, s.db, store, ai, s.logger)
	dashboardService := service.NewDashboardService(s.db, s.db, s.db)

	itemHandler := handler.NewItemHandler(catalogService, exchangeService, s.logger)
	adminHandler := handler.NewAdminHandler(moderationService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, s.logger)
	assistantHandler := handler.NewAssistantHandler(ai, s.logger)

	// Auth routes need a signing secret. Without one the catalog is still
	// browsable read-only, but nothing that identifies a user is mounted.
	var tokens *auth.TokenService
	if s.cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenService(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	} else {
		s.logger.Warn("JWT_SECRET not set, auth routes disabled")
	}

	var github *auth.GitHubProvider
	if tokens != nil && s.cfg.Auth.GitHubClientID != "" && s.cfg.Auth.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.cfg.Auth.GitHubClientID,
			s.cfg.Auth.GitHubClientSecret,
			s.cfg.Auth.GitHubCallbackURL,
		)
	}

	s.router.Route("/api", func(r chi.Router) {
		// Public catalog.
		r.Get("/items/featured", itemHandler.HandleListFeatured)
		r.Get("/items", itemHandler.HandleList)

		// Public assistant surface.
		r.Get("/assistant/search", assistantHandler.HandleSearch)
		r.Get("/assistant/health", assistantHandler.HandleHealth)

		if tokens == nil {
			// Item detail still works anonymously; pending items stay hidden.
			r.Get("/items/{id}", itemHandler.HandleGet)
			return
		}

		r.With(auth.OptionalAuth(tokens)).Get("/items/{id}", itemHandler.HandleGet)

		authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
		authHandler := handler.NewAuthHandler(authService, github, s.logger)

		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/login", authHandler.HandleLogin)

		if github != nil {
			s.router.Route("/auth/github", func(r chi.Router) {
				r.Get("/login", authHandler.HandleGitHubLogin)
				r.Get("/callback", authHandler.HandleGitHubCallback)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user/profile", authHandler.HandleGetProfile)
			r.Put("/user/profile", authHandler.HandleUpdateProfile)

			r.Post("/items", itemHandler.HandleCreate)
			r.Post("/items/{id}/swap-request", itemHandler.HandleSwapRequest)
			r.Post("/items/{id}/redeem", itemHandler.HandleRedeem)

			r.Get("/dashboard", dashboardHandler.HandleGet)

			r.Post("/assistant/chat", assistantHandler.HandleChat)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/admin/pending", adminHandler.HandleListPending)
				r.Post("/admin/{id}/approve", adminHandler.HandleApprove)
				r.Delete("/admin/{id}/reject", adminHandler.HandleReject)
				r.Delete("/admin/{id}/remove", adminHandler.HandleReject)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.cfg.Storage.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
