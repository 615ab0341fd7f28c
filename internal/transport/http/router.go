package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lingualearner-api/internal/handler"
	"lingualearner-api/internal/httputil"
	"lingualearner-api/internal/repository"
	"lingualearner-api/internal/service"
	authmw "lingualearner-api/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	MediaHandler   *handler.MediaHandler // nil when object storage is not configured
	TokenService   *service.TokenService
	UserRepo       repository.UserRepository
	RequestTimeout time.Duration
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	requireAuth := authmw.RequireAuth(cfg.TokenService, cfg.UserRepo)
	optionalAuth := authmw.OptionalAuth(cfg.TokenService, cfg.UserRepo)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"message": "Lingua Learner API is running"})
	})

	// Public routes - no authentication required
	r.Post("/register", cfg.AuthHandler.Register)
	r.Post("/login", cfg.AuthHandler.Login)

	// Public post endpoints; a valid token personalizes is_liked
	r.With(optionalAuth).Get("/posts", cfg.PostHandler.List)
	r.With(optionalAuth).Get("/posts/{id}", cfg.PostHandler.GetByID)
	r.Get("/posts/{id}/comments", cfg.CommentHandler.List)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", cfg.UserHandler.GetProfile)
			r.Put("/profile", cfg.UserHandler.UpdateProfile)
			r.Delete("/profile", cfg.UserHandler.DeleteProfile)
			r.Get("/check", cfg.UserHandler.Check)
		})

		r.Get("/users", cfg.UserHandler.List)

		r.Post("/posts", cfg.PostHandler.Create)

		r.Post("/posts/{id}/like", cfg.PostHandler.Like)
		r.Delete("/posts/{id}/like", cfg.PostHandler.Unlike)
		r.Patch("/posts/{id}/like", cfg.PostHandler.ToggleLike)

		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Put("/posts/{id}/comments/{commentId}", cfg.CommentHandler.Update)
		r.Delete("/posts/{id}/comments/{commentId}", cfg.CommentHandler.Delete)

		if cfg.MediaHandler != nil {
			r.Post("/media/avatar", cfg.MediaHandler.UploadAvatar)
			r.Post("/media/posts", cfg.MediaHandler.UploadPostImage)
		}
	})

	return r
}
