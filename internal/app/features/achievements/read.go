package achievements

import (
	"net/http"

	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /achievements?category=&rarity=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievement list")
	defer cancel()

	pg := paging.Parse(r)
	f := achievementstore.Filter{Category: query.Get(r, "category"), Rarity: query.Get(r, "rarity")}
	list, total, err := h.Achievements.List(ctx, f, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Page(w, list, len(list), pg.Page, pg.Limit, total)
}

// ServeGet handles GET /achievements/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "achievement get")
	defer cancel()

	a, err := h.Achievements.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, a)
}

// ServeForUser handles GET /achievements/user/{userId}, newest unlock first.
func (h *Handler) ServeForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := params.PathID(r, "userId")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievements for user")
	defer cancel()

	list, err := h.Achievements.ListForUser(ctx, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}
