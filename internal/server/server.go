package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bazaar-market/apiserver/config"
	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/db"
	"github.com/bazaar-market/apiserver/internal/handlers"
	"github.com/bazaar-market/apiserver/internal/mq"
	"github.com/bazaar-market/apiserver/internal/services"
	"github.com/bazaar-market/apiserver/internal/storage"
	"github.com/bazaar-market/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	media, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if media != nil {
		if err := media.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	events, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	catalogRepo := store.NewCatalogRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)

	policy := auth.NewPasswordPolicy(cfg.Auth.BcryptCost)
	issuer := auth.NewTokenIssuer(jwtSecret, time.Duration(cfg.Auth.TokenTTL)*time.Hour)

	userService := services.NewUserService(userRepo, policy, cfg.Listings.DefaultPageSize)
	postService := services.NewPostService(
		postRepo,
		media,
		events,
		cfg.Listings.AllowAnonymous,
		cfg.Listings.ReportThreshold,
		cfg.Listings.DefaultPageSize,
	)
	catalogService := services.NewCatalogService(catalogRepo)
	commentService := services.NewCommentService(commentRepo, postRepo)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.Identity(issuer),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, issuer)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, cfg.Listings.DefaultPageSize)
	})
	router.Route("/posts", func(r chi.Router) {
		handlers.PostRouter(r, postService, commentService, cfg.Listings.DefaultPageSize)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, catalogService)
	})
	router.Route("/contact-types", func(r chi.Router) {
		handlers.ContactTypeRouter(r, catalogService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
