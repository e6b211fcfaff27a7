package achievements

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleUnlock handles POST /achievements/{id}/unlock with {"userId": "..."}.
// A second unlock by the same user is a conflict and awards nothing.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	achievementID, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := params.UserIDBody(w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievement unlock")
	defer cancel()

	ua, err := h.Achievements.Unlock(ctx, achievementID, userID)
	metrics.AchievementUnlocks.WithLabelValues(metrics.Outcome(err, apperr.KindName)).Inc()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventAchievementUnlocked, userID, achievementID)
	h.Log.Info("achievement unlocked",
		zap.String("achievement_id", achievementID.Hex()),
		zap.String("user_id", userID.Hex()))
	respond.OKMessage(w, ua, "Achievement unlocked")
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
	Rarity      string `json:"rarity"`
	Category    string `json:"category"`
}

// HandleCreate handles POST /achievements.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievement create")
	defer cancel()

	a, err := h.Achievements.Create(ctx, achievementstore.NewAchievement{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Points:      req.Points,
		Rarity:      req.Rarity,
		Category:    req.Category,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventAchievementCreated, a.ID, map[string]string{"title": a.Title})
	respond.Created(w, a, "Achievement created")
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Points      *int    `json:"points"`
	Rarity      *string `json:"rarity"`
	Category    *string `json:"category"`
}

// HandleUpdate handles PUT /achievements/{id}.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievement update")
	defer cancel()

	a, err := h.Achievements.Update(ctx, id, achievementstore.Update{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Points:      req.Points,
		Rarity:      req.Rarity,
		Category:    req.Category,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventAchievementUpdated, id, nil)
	respond.OKMessage(w, a, "Achievement updated")
}

// HandleDelete handles DELETE /achievements/{id}. Points already awarded
// are kept.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "achievement delete")
	defer cancel()

	if err := h.Achievements.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventAchievementDeleted, id, nil)
	respond.OKMessage(w, nil, "Achievement deleted")
}
