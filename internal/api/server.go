package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/health"
	"github.com/terra-clan/learnpath/internal/learning"
	"github.com/terra-clan/learnpath/internal/storage"
)

// Permissions checked by the API
const (
	PermCatalogRead   = "catalog:read"
	PermSessionsRead  = "sessions:read"
	PermSessionsWrite = "sessions:write"
	PermAdminPurge    = "admin:purge"
	PermAdminClients  = "admin:clients"
)

// requestTimeout bounds every non-streaming request. It leaves room for a
// full content pipeline: query generation, up to five searches and assembly.
const requestTimeout = 120 * time.Second

// Deps are the services the API exposes
type Deps struct {
	Catalog  *catalog.Catalog
	Levels   *learning.LevelService
	Sessions *learning.Sessions
	Store    storage.Store
	Health   *health.Registry
	Clients  []config.ClientConfig
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalog        *catalog.Catalog
	levels         *learning.LevelService
	sessions       *learning.Sessions
	store          storage.Store
	health         *health.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	registry := deps.Health
	if registry == nil {
		registry = health.NewRegistry()
	}

	s := &Server{
		config:         cfg,
		catalog:        deps.Catalog,
		levels:         deps.Levels,
		sessions:       deps.Sessions,
		store:          deps.Store,
		health:         registry,
		authMiddleware: NewAuthMiddleware(deps.Clients),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)
		perm := s.authMiddleware.RequirePermission
		timeout := middleware.Timeout(requestTimeout)

		// Catalog
		r.Route("/hobbies", func(r chi.Router) {
			r.Use(timeout)
			r.With(perm(PermCatalogRead)).Get("/", s.handleListHobbies)
			r.With(perm(PermCatalogRead)).Get("/{hobbyId}", s.handleGetHobby)
			r.With(perm(PermCatalogRead)).Get("/{hobbyId}/levels", s.handleListLevels)
			r.With(perm(PermSessionsWrite)).Post("/{hobbyId}/levels", s.handleAddLevel)
		})

		// Learner sessions
		r.Route("/sessions", func(r chi.Router) {
			r.With(timeout, perm(PermSessionsWrite)).Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				// The progress stream is long-lived and stays outside the request timeout
				r.With(perm(PermSessionsRead)).Get("/stream", s.handleSessionStream)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.With(perm(PermSessionsRead)).Get("/", s.handleGetSession)
					r.With(perm(PermSessionsWrite)).Delete("/", s.handleDeleteSession)
					r.With(perm(PermSessionsWrite)).Put("/hobby", s.handleSelectHobby)
					r.With(perm(PermSessionsWrite)).Put("/level", s.handleSelectLevel)
					r.With(perm(PermSessionsWrite)).Post("/path", s.handleLoadPath)
					r.With(perm(PermSessionsWrite)).Patch("/progress/{techniqueId}", s.handleUpdateProgress)
					r.With(perm(PermSessionsRead)).Get("/techniques/{techniqueId}/content", s.handleGetContent)
				})
			})
		})

		// Maintenance
		r.With(timeout, perm(PermAdminPurge)).Post("/admin/purge", s.handlePurge)
		r.With(timeout, perm(PermAdminClients)).Get("/admin/clients", s.handleListClients)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
