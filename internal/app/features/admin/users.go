package admin

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type updateUserRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Email       *string `json:"email"`
}

// HandleUpdateUser handles PUT /admin/users/{id}. Unlike the profile
// route, admins may change the email.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req updateUserRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin user update")
	defer cancel()

	u, err := h.Users.Update(ctx, id, userstore.Update{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Email:       req.Email,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventUserUpdated, id, nil)
	respond.OKMessage(w, u, "User updated")
}

// HandleDeleteUser handles DELETE /admin/users/{id}. The user's club
// memberships, event registrations and unlocks go with them.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "admin user delete")
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventUserDeleted, id, nil)
	h.Log.Info("user deleted", zap.String("user_id", id.Hex()))
	respond.OKMessage(w, nil, "User deleted")
}
