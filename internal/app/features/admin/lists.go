package admin

import (
	"net/http"

	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type userRow struct {
	models.User
	ClubNames []string `json:"clubNames"`
}

type clubRow struct {
	models.Club
	CreatorName string `json:"creatorName"`
	MemberCount int    `json:"memberCount"`
}

type eventRow struct {
	models.Event
	ClubName         string `json:"clubName"`
	CreatorName      string `json:"creatorName"`
	ParticipantCount int    `json:"participantCount"`
}

// ServeUsers handles GET /admin/users?page=&limit=.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin users")
	defer cancel()

	pg := paging.Parse(r)
	list, total, err := h.Users.List(ctx, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	var clubIDs []primitive.ObjectID
	for _, u := range list {
		clubIDs = append(clubIDs, u.Clubs...)
	}
	names, err := h.Clubs.Names(ctx, dedupe(clubIDs))
	if err != nil {
		h.Log.Warn("admin users: club names", zap.Error(err))
	}

	rows := make([]userRow, 0, len(list))
	for _, u := range list {
		row := userRow{User: u, ClubNames: []string{}}
		for _, id := range u.Clubs {
			if n, ok := names[id]; ok {
				row.ClubNames = append(row.ClubNames, n)
			}
		}
		rows = append(rows, row)
	}
	respond.Page(w, rows, len(rows), pg.Page, pg.Limit, total)
}

// ServeClubs handles GET /admin/clubs?category=&page=&limit=.
func (h *Handler) ServeClubs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin clubs")
	defer cancel()

	pg := paging.Parse(r)
	list, total, err := h.Clubs.List(ctx, clubstore.Filter{Category: query.Get(r, "category")}, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	creators := make([]primitive.ObjectID, 0, len(list))
	for _, c := range list {
		creators = append(creators, c.CreatedBy)
	}
	names, err := h.Users.Names(ctx, dedupe(creators))
	if err != nil {
		h.Log.Warn("admin clubs: creator names", zap.Error(err))
	}

	rows := make([]clubRow, 0, len(list))
	for _, c := range list {
		rows = append(rows, clubRow{Club: c, CreatorName: names[c.CreatedBy], MemberCount: len(c.Members)})
	}
	respond.Page(w, rows, len(rows), pg.Page, pg.Limit, total)
}

// ServeEvents handles GET /admin/events?club=&status=&page=&limit=.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	club, err := params.OptionalObjectID(query.Get(r, "club"), "club")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin events")
	defer cancel()

	pg := paging.Parse(r)
	list, total, err := h.Events.List(ctx, eventstore.Filter{Club: club, Status: query.Get(r, "status")}, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	clubIDs := make([]primitive.ObjectID, 0, len(list))
	creators := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		clubIDs = append(clubIDs, e.Club)
		creators = append(creators, e.CreatedBy)
	}
	clubNames, err := h.Clubs.Names(ctx, dedupe(clubIDs))
	if err != nil {
		h.Log.Warn("admin events: club names", zap.Error(err))
	}
	userNames, err := h.Users.Names(ctx, dedupe(creators))
	if err != nil {
		h.Log.Warn("admin events: creator names", zap.Error(err))
	}

	rows := make([]eventRow, 0, len(list))
	for _, e := range list {
		rows = append(rows, eventRow{
			Event:            e,
			ClubName:         clubNames[e.Club],
			CreatorName:      userNames[e.CreatedBy],
			ParticipantCount: len(e.Participants),
		})
	}
	respond.Page(w, rows, len(rows), pg.Page, pg.Limit, total)
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
