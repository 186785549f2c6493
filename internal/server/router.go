// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gatekeep/gatekeep-go/internal/handler"
	"github.com/gatekeep/gatekeep-go/internal/middleware"
	"github.com/gatekeep/gatekeep-go/internal/service"
)

// NewRouter wires the auth endpoints behind the shared middleware stack.
func NewRouter(authService *service.AuthService, allowedOrigins []string) http.Handler {
	authHandler := handler.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(authService))
			r.Get("/me", authHandler.HandleMe)
		})
	})

	return r
}
