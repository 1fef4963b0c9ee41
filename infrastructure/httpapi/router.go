package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"messenger-lab/auth"
)

// NewRouter wires the API. Everything past /register and /login requires a
// verified identity; its absence is rejected here, before any core
// operation runs.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/healthz", h.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/users/search", h.SearchUsers)
		r.Get("/inbox", h.Inbox)
		r.Get("/events", h.Events)
		r.Post("/typing", h.Typing)

		r.Route("/conversations/{user}", func(r chi.Router) {
			r.Get("/messages", h.History)
			r.Post("/messages", h.Send)
			r.Delete("/messages/{ts}", h.DeleteMessage)
			r.Post("/messages/{ts}/reactions", h.AddReaction)
			r.Delete("/messages/{ts}/reactions/{emoji}", h.RemoveReaction)
		})
	})

	return r
}
