package team

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	teamstore "github.com/dalemusser/clubhub/internal/app/store/team"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

// ServeList handles GET /team: active members in display order.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team list")
	defer cancel()

	list, err := h.Team.ListActive(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// HandleCreate handles POST /team.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "team create")
	defer cancel()

	in, stored, err := h.readInput(ctx, w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	m, err := h.Team.Create(ctx, teamstore.NewMember{
		Name:     deref(in.Name),
		Role:     deref(in.Role),
		Bio:      deref(in.Bio),
		Image:    deref(in.Image),
		Order:    deref(in.Order),
		LinkedIn: deref(in.LinkedIn),
		GitHub:   deref(in.GitHub),
		Email:    deref(in.Email),
	})
	if err != nil {
		h.discardImage(ctx, stored)
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventTeamMemberCreated, m.ID, map[string]string{"name": m.Name})
	respond.Created(w, m, "Team member created")
}

// HandleUpdate handles PUT /team/{id}. A new upload replaces the previous
// stored image.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "team update")
	defer cancel()

	prev, err := h.Team.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	in, stored, err := h.readInput(ctx, w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	m, err := h.Team.Update(ctx, id, teamstore.Update{
		Name:     in.Name,
		Role:     in.Role,
		Bio:      in.Bio,
		Image:    in.Image,
		Order:    in.Order,
		LinkedIn: in.LinkedIn,
		GitHub:   in.GitHub,
		Email:    in.Email,
		IsActive: in.IsActive,
	})
	if err != nil {
		h.discardImage(ctx, stored)
		respond.Error(w, h.Log, err)
		return
	}
	if in.Image != nil && prev.Image != "" && prev.Image != m.Image {
		h.discardImageURL(ctx, prev.Image)
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventTeamMemberUpdated, id, nil)
	respond.OKMessage(w, m, "Team member updated")
}

// HandleDelete handles DELETE /team/{id}. The member is deactivated and
// keeps its image so it can be restored.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team delete")
	defer cancel()

	if err := h.Team.Deactivate(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventTeamMemberDeleted, id, nil)
	respond.OKMessage(w, nil, "Team member deleted")
}
