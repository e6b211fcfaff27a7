// internal/app/features/admin/routes.go
package admin

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Editor is a feature handler whose update and delete the console reuses.
type Editor interface {
	HandleUpdate(w http.ResponseWriter, r *http.Request)
	HandleDelete(w http.ResponseWriter, r *http.Request)
}

// Editors are the feature handlers behind /admin/{clubs,events,achievements}/{id}.
type Editors struct {
	Clubs        Editor
	Events       Editor
	Achievements Editor
}

// Routes mounts under /api/v1/admin. Login lives in its own package and
// is mounted beside this router; everything here needs an admin.
func Routes(h *Handler, sm *auth.SessionManager, ed Editors) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAdmin)

		pr.Get("/stats", h.ServeStats)

		pr.Get("/users", h.ServeUsers)
		pr.Put("/users/{id}", h.HandleUpdateUser)
		pr.Delete("/users/{id}", h.HandleDeleteUser)

		pr.Get("/clubs", h.ServeClubs)
		pr.Put("/clubs/{id}", ed.Clubs.HandleUpdate)
		pr.Delete("/clubs/{id}", ed.Clubs.HandleDelete)

		pr.Get("/events", h.ServeEvents)
		pr.Put("/events/{id}", ed.Events.HandleUpdate)
		pr.Delete("/events/{id}", ed.Events.HandleDelete)

		pr.Put("/achievements/{id}", ed.Achievements.HandleUpdate)
		pr.Delete("/achievements/{id}", ed.Achievements.HandleDelete)
	})

	return r
}
