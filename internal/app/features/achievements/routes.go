// internal/app/features/achievements/routes.go
package achievements

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/v1/achievements. Catalog writes are admin-only;
// unlocking is open to the platform.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/user/{userId}", h.ServeForUser)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/unlock", h.HandleUnlock)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAdmin)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
