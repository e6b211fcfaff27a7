// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	isAuthKey  = "is_authenticated"
	adminIDKey = "admin_id"
	adminName  = "admin_name"
	adminEmail = "admin_email"
	adminRole  = "admin_role"

	// tokenName scopes bearer tokens so a session cookie value cannot be
	// replayed as a token.
	tokenName = "clubhub-admin-token"
)

// SessionAdmin is the signed-in admin carried in the session and in r.Context().
type SessionAdmin struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ObjectID parses a.ID; a malformed id yields the nil ObjectID.
func (a *SessionAdmin) ObjectID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(a.ID)
	return id
}

type ctxKey string

const currentAdminKey ctxKey = "currentAdmin"

// AdminFetcher loads the current state of an admin on each request. It
// returns nil when the admin no longer exists or is deactivated.
type AdminFetcher interface {
	FetchAdmin(ctx context.Context, adminID string) *SessionAdmin
}

// SessionManager issues and checks admin credentials: a server-signed
// session cookie for the browser console and a signed bearer token for
// API clients. Neither carries anything the client can forge.
type SessionManager struct {
	store   *sessions.CookieStore
	codec   *securecookie.SecureCookie
	name    string
	ttl     time.Duration
	log     *zap.Logger
	fetcher AdminFetcher
}

// SetAdminFetcher makes LoadSessionAdmin re-read each signed-in admin, so
// deactivation takes effect before the session or token expires.
func (sm *SessionManager) SetAdminFetcher(f AdminFetcher) {
	sm.fetcher = f
}

// NewSessionManager builds the cookie store and token codec from
// sessionKey. secure marks cookies Secure with SameSite=None for
// cross-site HTTPS; dev over http uses Lax.
func NewSessionManager(sessionKey, sessionName, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if sessionName == "" {
		sessionName = "clubhub-admin"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	codec := securecookie.New([]byte(sessionKey), nil)
	codec.MaxAge(int(ttl.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{store: store, codec: codec, name: sessionName, ttl: ttl, log: logger}, nil
}

// TTL is how long a session or token stays valid.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// SignIn stores a in the session cookie and returns a bearer token for it.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, a SessionAdmin) (string, error) {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[adminIDKey] = a.ID
	sess.Values[adminName] = a.Name
	sess.Values[adminEmail] = a.Email
	sess.Values[adminRole] = a.Role
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return sm.IssueToken(a)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// IssueToken signs a. securecookie embeds the issue time and rejects the
// token after the TTL.
func (sm *SessionManager) IssueToken(a SessionAdmin) (string, error) {
	return sm.codec.Encode(tokenName, a)
}

// ParseToken verifies a bearer token.
func (sm *SessionManager) ParseToken(token string) (*SessionAdmin, error) {
	var a SessionAdmin
	if err := sm.codec.Decode(tokenName, token, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, errors.New("token has no admin id")
	}
	return &a, nil
}

// LoadSessionAdmin injects the admin into the context when the request
// carries a valid bearer token or session cookie. With a fetcher set, the
// admin must still exist and be active.
func (sm *SessionManager) LoadSessionAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a := sm.credentialAdmin(r); a != nil {
			if a = sm.refresh(r.Context(), a); a != nil {
				r = withAdmin(r, a)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// credentialAdmin reads the admin from the bearer token, or from the
// session cookie when no token is sent.
func (sm *SessionManager) credentialAdmin(r *http.Request) *SessionAdmin {
	if tok := bearerToken(r); tok != "" {
		a, err := sm.ParseToken(tok)
		if err != nil {
			sm.log.Debug("rejected bearer token", zap.Error(err))
			return nil
		}
		return a
	}

	sess, _ := sm.store.Get(r, sm.name)
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	return &SessionAdmin{
		ID:    getString(sess, adminIDKey),
		Name:  getString(sess, adminName),
		Email: getString(sess, adminEmail),
		Role:  getString(sess, adminRole),
	}
}

func (sm *SessionManager) refresh(ctx context.Context, a *SessionAdmin) *SessionAdmin {
	if sm.fetcher == nil {
		return a
	}
	fresh := sm.fetcher.FetchAdmin(ctx, a.ID)
	if fresh == nil {
		sm.log.Debug("dropped credential for inactive or missing admin", zap.String("admin_id", a.ID))
	}
	return fresh
}

// RequireAdmin answers 401 unless LoadSessionAdmin found an admin.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentAdmin(r); !ok {
			respond.Error(w, sm.log, apperr.Auth("admin authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentAdmin returns the admin and a found flag.
func CurrentAdmin(r *http.Request) (*SessionAdmin, bool) {
	a, ok := r.Context().Value(currentAdminKey).(*SessionAdmin)
	return a, ok
}

// WithTestAdmin injects a into the request context. For handler tests.
func WithTestAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return withAdmin(r, a)
}

func withAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentAdminKey, a))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
