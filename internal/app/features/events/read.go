package events

import (
	"net/http"
	"strconv"

	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /events?club=&status=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	club, err := params.OptionalObjectID(query.Get(r, "club"), "club")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event list")
	defer cancel()

	pg := paging.Parse(r)
	list, total, err := h.Events.List(ctx, eventstore.Filter{Club: club, Status: query.Get(r, "status")}, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Page(w, list, len(list), pg.Page, pg.Limit, total)
}

// ServeUpcoming handles GET /events/upcoming?limit=.
func (h *Handler) ServeUpcoming(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if n, err := strconv.ParseInt(query.Get(r, "limit"), 10, 64); err == nil && n > 0 {
		limit = n
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event upcoming")
	defer cancel()

	list, err := h.Events.Upcoming(ctx, limit)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}

// ServeGet handles GET /events/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "event get")
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, ev)
}
