package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/user-api/app"
	"github.com/upb/user-api/handlers"
	"github.com/upb/user-api/middleware"
	"github.com/upb/user-api/repositories"
	"github.com/upb/user-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Origin", "Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := newHealthHandler(deps)
	users := handlers.NewUserHandler(deps.UserService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/", health.HandlePing)

		// Everything below requires a verified bearer token
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Get("/me", users.HandleCurrentUser)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", users.HandleListUsers)
				r.Post("/", users.HandleCreateUser)
				r.Get("/{userID}", users.HandleGetUser)
				r.Delete("/{userID}", users.HandleDeleteUser)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// newHealthHandler keeps missing components out of the interfaces so
// readiness skips their checks instead of dereferencing nil.
func newHealthHandler(deps *app.Dependencies) *handlers.HealthHandler {
	var db repositories.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var keys handlers.KeyCounter
	if deps.Keys != nil {
		keys = deps.Keys
	}
	return handlers.NewHealthHandler(db, keys, deps.Logger)
}
