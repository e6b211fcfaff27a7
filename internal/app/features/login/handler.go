// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"time"

	adminstore "github.com/dalemusser/clubhub/internal/app/store/admins"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler signs admins in to the console.
type Handler struct {
	Admins     *adminstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Admins:     adminstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the bearer token for API clients; browsers can
// rely on the session cookie set alongside it.
type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     models.Admin `json:"admin"`
}

// HandleLogin handles POST /admin/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respond.Error(w, h.Log, apperr.Validation("email and password are required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin login")
	defer cancel()

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, req.Email, "rate limited")
		respond.Error(w, h.Log, apperr.RateLimited("%s", reason))
		return
	}

	a, err := h.Admins.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, adminstore.ErrUnknownEmail):
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUnknownEmail, req.Email, "unknown email")
		case errors.Is(err, adminstore.ErrWrongPassword):
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, req.Email, "wrong password")
		case errors.Is(err, adminstore.ErrInactive):
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedDisabled, req.Email, "account inactive")
		}
		respond.Error(w, h.Log, err)
		return
	}

	token, err := h.SessionMgr.SignIn(w, r, auth.SessionAdmin{
		ID:    a.ID.Hex(),
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Limiter.ResetEmail(req.Email)
	h.AuditLog.LoginSuccess(ctx, r, a.ID, a.Email)
	h.Log.Info("admin logged in", zap.String("admin_id", a.ID.Hex()))

	respond.OKMessage(w, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.SessionMgr.TTL()),
		Admin:     *a,
	}, "Login successful")
}
