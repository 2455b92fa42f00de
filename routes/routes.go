package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gradconnect/backend/app"
	"github.com/gradconnect/backend/internal/observability"
	"github.com/gradconnect/backend/middleware"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	if deps.Config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.AuditMetadata)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	if deps.MetricsRegistry != nil {
		r.Handle("/metrics", observability.Handler(deps.MetricsRegistry))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.HealthHandler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are throttled per client
			r.Group(func(r chi.Router) {
				if deps.RateLimiter != nil {
					r.Use(deps.RateLimiter.Middleware)
				}
				r.Post("/register", deps.AuthHandler.HandleRegister)
				r.Post("/login", deps.AuthHandler.HandleLogin)
				r.Post("/refresh", deps.AuthHandler.HandleRefresh)
			})

			r.Post("/logout", deps.AuthHandler.HandleLogout)

			r.With(deps.AuthMiddleware.RequireAuth).Get("/me", deps.AuthHandler.HandleMe)

			// OAuth federation
			r.Get("/{provider}/login", deps.OAuthHandler.HandleLogin)
			r.Get("/{provider}/callback", deps.OAuthHandler.HandleCallback)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/me", deps.ProfileHandler.HandleGetMine)
			r.Put("/me/alumni", deps.ProfileHandler.HandleUpsertAlumni)
			r.Put("/me/student", deps.ProfileHandler.HandleUpsertStudent)
			r.Get("/directory", deps.ProfileHandler.HandleDirectory)
			r.Get("/alumni", deps.ProfileHandler.HandleListAlumni)
			r.Get("/alumni/{id}", deps.ProfileHandler.HandleGetAlumni)
			r.Get("/students", deps.ProfileHandler.HandleListStudents)
			r.Get("/students/{id}", deps.ProfileHandler.HandleGetStudent)
		})

		// Account administration (require admin role)
		r.Route("/users", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequireRole(models.RoleAdmin))
			r.Get("/", deps.UserHandler.HandleList)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	return r
}
