package clubs

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Gradient    string `json:"gradient"`
	Category    string `json:"category"`
	CreatedBy   string `json:"createdBy"`
}

// HandleCreate handles POST /clubs.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	creator, err := params.OptionalObjectID(req.CreatedBy, "createdBy")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "club create")
	defer cancel()

	club, err := h.Clubs.Create(ctx, clubstore.NewClub{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Gradient:    req.Gradient,
		Category:    req.Category,
		CreatedBy:   creator,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventClubCreated, club.CreatedBy, club.ID)
	h.Log.Info("club created", zap.String("club_id", club.ID.Hex()), zap.String("name", club.Name))
	respond.Created(w, club, "Club created")
}

// HandleJoin handles POST /clubs/{id}/join with {"userId": "..."}.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	clubID, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := params.UserIDBody(w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "club join")
	defer cancel()

	club, err := h.Clubs.Join(ctx, clubID, userID)
	metrics.ClubJoins.WithLabelValues(metrics.Outcome(err, apperr.KindName)).Inc()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventClubJoined, userID, clubID)
	respond.OKMessage(w, club, "Joined club")
}

// HandleLeave handles POST /clubs/{id}/leave. Leaving a club the user is
// not in succeeds.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	clubID, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := params.UserIDBody(w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "club leave")
	defer cancel()

	club, err := h.Clubs.Leave(ctx, clubID, userID)
	metrics.ClubLeaves.WithLabelValues(metrics.Outcome(err, apperr.KindName)).Inc()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventClubLeft, userID, clubID)
	respond.OKMessage(w, club, "Left club")
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	Gradient    *string `json:"gradient"`
	Category    *string `json:"category"`
}

// HandleUpdate handles PUT /clubs/{id}. Members are not editable here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "club update")
	defer cancel()

	club, err := h.Clubs.Update(ctx, id, clubstore.Update{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Gradient:    req.Gradient,
		Category:    req.Category,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventClubUpdated, id, nil)
	respond.OKMessage(w, club, "Club updated")
}

// HandleDelete handles DELETE /clubs/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "club delete")
	defer cancel()

	if err := h.Clubs.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventClubDeleted, id, nil)
	h.Log.Info("club deleted", zap.String("club_id", id.Hex()))
	respond.OKMessage(w, nil, "Club deleted")
}
