// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL       = 10 * time.Minute
	googleUserInfo = "https://www.googleapis.com/oauth2/v2/userinfo"
	callbackPath   = "/api/v1/auth/google/callback"
)

var (
	errNotConfigured = apperr.Validation("google sign-in is not configured")
	errDenied        = apperr.Auth("google sign-in was cancelled")
	errInvalidState  = apperr.Auth("sign-in state is invalid or expired")
	errMissingCode   = apperr.Auth("authorization code is missing")
	errExchange      = apperr.Auth("could not complete google sign-in")
	errUnverified    = apperr.Auth("google account email is not verified")
)

// Handler signs platform users in with Google and records them through
// the user store's provider sync.
type Handler struct {
	Users      *userstore.Store
	StateStore *oauthstate.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // baseURL + callbackPath

	// Endpoint and UserInfoURL default to Google's; tests point them at
	// a local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a Google sign-in handler. baseURL is the public
// origin of this server.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		StateStore:   oauthstate.New(db),
		AuditLog:     audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + callbackPath,
		Endpoint:     google.Endpoint,
		UserInfoURL:  googleUserInfo,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Stores a one-time state and redirects to Google's consent screen.            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		respond.Error(w, h.Log, errNotConfigured)
		return
	}

	state, err := generateState()
	if err != nil {
		respond.Error(w, h.Log, fmt.Errorf("generate oauth state: %w", err))
		return
	}
	returnURL := query.Get(r, "return")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "oauth state save")
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		respond.Error(w, h.Log, fmt.Errorf("save oauth state: %w", err))
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, then syncs the user.         |
*─────────────────────────────────────────────────────────────────────────────*/

// callbackResult is the body of a successful callback. ReturnTo echoes the
// sanitized return path given to ServeLogin, if any.
type callbackResult struct {
	User     models.User `json:"user"`
	Created  bool        `json:"created"`
	ReturnTo string      `json:"returnTo,omitempty"`
}

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		respond.Error(w, h.Log, errDenied)
		return
	}
	state := query.Get(r, "state")
	if state == "" {
		respond.Error(w, h.Log, errInvalidState)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "google callback")
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		respond.Error(w, h.Log, fmt.Errorf("validate oauth state: %w", err))
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		respond.Error(w, h.Log, errInvalidState)
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		respond.Error(w, h.Log, errMissingCode)
		return
	}
	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		respond.Error(w, h.Log, errExchange)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		respond.Error(w, h.Log, errExchange)
		return
	}
	if !info.EmailVerified {
		respond.Error(w, h.Log, errUnverified)
		return
	}

	u, created, err := h.Users.SyncProviderUser(ctx, userstore.ProviderProfile{
		ProviderID:  info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.ProviderSignIn(ctx, r, u.ID, created)
	h.Log.Info("user signed in via Google",
		zap.String("user_id", u.ID.Hex()),
		zap.Bool("created", created))

	res := callbackResult{User: u, Created: created}
	if returnURL != "" {
		res.ReturnTo = urlutil.SafeReturn(returnURL, "", "/")
	}
	respond.OK(w, res)
}

// googleUser is the subset of Google's userinfo response we use.
type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
