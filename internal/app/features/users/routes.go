// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/v1/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/sync", h.HandleSync)
	r.Post("/register", h.HandleRegister)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Get("/{id}/clubs", h.ServeClubs)
	r.Get("/{id}/events", h.ServeEvents)

	return r
}
