package users

import (
	"net/http"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type syncRequest struct {
	ProviderID  string `json:"providerId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// HandleSync handles POST /users/sync. The caller has already verified
// the identity with its provider; this records or refreshes the user.
// Answers 201 when the user is new.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user sync")
	defer cancel()

	u, created, err := h.Users.SyncProviderUser(ctx, userstore.ProviderProfile{
		ProviderID:  req.ProviderID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.ProviderSignIn(ctx, r, u.ID, created)
	if created {
		h.Log.Info("user created on sync", zap.String("user_id", u.ID.Hex()))
		respond.Created(w, u, "User created")
		return
	}
	respond.OKMessage(w, u, "User synced")
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleRegister handles POST /users/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user register")
	defer cancel()

	u, err := h.Users.Register(ctx, req.Username, req.Email)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, u, "User registered")
}

// ServeGet handles GET /users/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user get")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, u)
}

type updateRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

// HandleUpdate handles PUT /users/{id}. Email is not editable here; it
// follows the identity provider on the next sync.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user update")
	defer cancel()

	u, err := h.Users.Update(ctx, id, userstore.Update{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OKMessage(w, u, "Profile updated")
}

// ServeClubs handles GET /users/{id}/clubs.
func (h *Handler) ServeClubs(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user clubs")
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	list, err := h.Clubs.ListByMember(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}

// ServeEvents handles GET /users/{id}/events.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user events")
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	list, err := h.Events.ListByParticipant(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.List(w, list, len(list))
}
