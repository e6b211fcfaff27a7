package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"golang.org/x/sync/errgroup"
)

type stats struct {
	Users          int64 `json:"users"`
	Clubs          int64 `json:"clubs"`
	Events         int64 `json:"events"`
	UpcomingEvents int64 `json:"upcomingEvents"`
	Achievements   int64 `json:"achievements"`
	Unlocks        int64 `json:"unlocks"`
	ActiveNotices  int64 `json:"activeNotices"`
	ActiveTeam     int64 `json:"activeTeamMembers"`
}

// ServeStats handles GET /admin/stats. The counts run concurrently and the
// first failure cancels the rest.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin stats")
	defer cancel()

	var s stats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}
	count(&s.Users, h.Users.Count)
	count(&s.Clubs, h.Clubs.Count)
	count(&s.Events, h.Events.Count)
	count(&s.UpcomingEvents, h.Events.CountUpcoming)
	count(&s.Achievements, h.Achievements.Count)
	count(&s.Unlocks, h.Achievements.CountUnlocks)
	count(&s.ActiveNotices, h.Notices.CountActive)
	count(&s.ActiveTeam, h.Team.CountActive)

	if err := g.Wait(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, s)
}
