package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the cross-cutting settings the router needs.
type RouterConfig struct {
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter wires every endpoint of the service onto a chi mux.
func NewRouter(cfg RouterConfig, reservations *ReservationHandler, admin *AdminReservationHandler, keys *KeyHandler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", HandleHealth)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", reservations.Create)
		r.Get("/", reservations.List)
		r.Get("/closest", reservations.Closest)
		r.Get("/student/{name}/{number}", reservations.ByStudent)
		r.Get("/student/{name}/{number}/upcoming", reservations.UpcomingByStudent)
		r.Get("/{id}", reservations.Get)
		r.Patch("/{id}", reservations.Update)
		r.Delete("/{id}", reservations.Delete)
	})

	r.Route("/key", func(r chi.Router) {
		r.Get("/", keys.Current)
		r.Post("/rent", keys.Rent)
		r.Post("/return", keys.Return)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/reservations", func(r chi.Router) {
			r.Post("/approve", admin.ApproveBatch)
			r.Patch("/{id}/approve", admin.Approve)
			r.Patch("/{id}/cancel", admin.Cancel)
			r.Patch("/{id}/authcode", admin.UpdateAuthCode)
			r.Delete("/{id}", admin.Delete)
		})
		r.Post("/key/return", keys.ForceReturn)
		r.Get("/key/history", keys.History)
		r.Get("/blacklist", keys.Blacklist)
	})

	return r
}
