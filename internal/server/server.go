package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/campusdesk/apiserver/config"
	"github.com/campusdesk/apiserver/internal/db"
	"github.com/campusdesk/apiserver/internal/handlers"
	"github.com/campusdesk/apiserver/internal/mq"
	"github.com/campusdesk/apiserver/internal/services"
	"github.com/campusdesk/apiserver/internal/storage"
	"github.com/campusdesk/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	events := services.NewEventPublisher(broker, cfg.MQ.EventsChannel)

	userRepo := store.NewUserRepository(dbConn)
	itemRepo := store.NewItemRepository(dbConn)
	issueRepo := store.NewIssueRepository(dbConn)

	userService := services.NewUserService(userRepo)
	itemService := services.NewItemService(itemRepo, userRepo, events)
	issueService := services.NewIssueService(issueRepo, userRepo, events, cfg.StrictIssueTransitions)

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/items", func(r chi.Router) {
		handlers.ItemRouter(r, itemService, userService, authMiddleware)
	})
	router.Route("/issues", func(r chi.Router) {
		handlers.IssueRouter(r, issueService, userService, authMiddleware)
	})
	router.Route("/stats", func(r chi.Router) {
		handlers.StatsRouter(r, itemService, issueService, userService, authMiddleware)
	})
	if objectStore != nil {
		router.Route("/uploads", func(r chi.Router) {
			handlers.UploadRouter(r, objectStore, cfg.PublicBaseURL, authMiddleware)
		})
	}

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
		mq:         broker,
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
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.mq != nil {
		_ = s.mq.Close()
	}
	return s.httpServer.Close()
}
