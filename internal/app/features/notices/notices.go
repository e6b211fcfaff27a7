package notices

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	noticestore "github.com/dalemusser/clubhub/internal/app/store/notices"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

// ServeActive handles GET /notices: active notices, most urgent first.
func (h *Handler) ServeActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notice list")
	defer cancel()

	list, err := h.Notices.ListActive(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}

// ServeAll handles GET /notices/all, inactive notices included.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notice list all")
	defer cancel()

	list, err := h.Notices.ListAll(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}

type createRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
	IsActive *bool  `json:"isActive"`
}

// HandleCreate handles POST /notices. The signed-in admin is recorded as
// the author.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	in := noticestore.NewNotice{
		Title:    req.Title,
		Content:  req.Content,
		Priority: req.Priority,
		Inactive: req.IsActive != nil && !*req.IsActive,
	}
	if a, ok := auth.CurrentAdmin(r); ok {
		if id := a.ObjectID(); !id.IsZero() {
			in.CreatedBy = &id
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notice create")
	defer cancel()

	n, err := h.Notices.Create(ctx, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventNoticeCreated, n.ID, map[string]string{"title": n.Title})
	respond.Created(w, n, "Notice created")
}

type updateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Priority *string `json:"priority"`
	IsActive *bool   `json:"isActive"`
}

// HandleUpdate handles PUT /notices/{id}.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notice update")
	defer cancel()

	n, err := h.Notices.Update(ctx, id, noticestore.Update{
		Title:    req.Title,
		Content:  req.Content,
		Priority: req.Priority,
		IsActive: req.IsActive,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventNoticeUpdated, id, nil)
	respond.OKMessage(w, n, "Notice updated")
}

// HandleDelete handles DELETE /notices/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notice delete")
	defer cancel()

	if err := h.Notices.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventNoticeDeleted, id, nil)
	respond.OKMessage(w, nil, "Notice deleted")
}
