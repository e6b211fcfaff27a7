package clubs

import (
	"net/http"
	"time"

	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /clubs?category=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "club list")
	defer cancel()

	pg := paging.Parse(r)
	list, total, err := h.Clubs.List(ctx, clubstore.Filter{Category: query.Get(r, "category")}, pg)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Page(w, list, len(list), pg.Page, pg.Limit, total)
}

// populatedMember replaces the member's user id with the user document.
type populatedMember struct {
	User       *models.User `json:"user"`
	Role       string       `json:"role"`
	JoinedDate time.Time    `json:"joinedDate"`
}

type populatedClub struct {
	models.Club
	Members []populatedMember `json:"members"`
}

// ServeGet handles GET /clubs/{id}. With ?populate=members each member row
// carries the full user instead of its id; members whose user no longer
// exists are dropped.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "club get")
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if query.Get(r, "populate") != "members" {
		respond.OK(w, club)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(club.Members))
	for _, m := range club.Members {
		ids = append(ids, m.User)
	}
	users, err := h.Users.Find(ctx, ids)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := populatedClub{Club: *club, Members: []populatedMember{}}
	for _, m := range club.Members {
		if u, ok := byID[m.User]; ok {
			out.Members = append(out.Members, populatedMember{User: u, Role: m.Role, JoinedDate: m.JoinedDate})
		}
	}
	respond.OK(w, out)
}
