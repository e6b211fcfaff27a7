package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/logout"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *logout.Handler {
	t.Helper()
	return logout.NewHandler(testutil.SessionManager(t), nil, zap.NewNop())
}

func TestHandleLogout_ExpiresCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.WithAdmin(httptest.NewRequest("POST", "/admin/logout", nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge = %d, want negative", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected the session cookie to be cleared")
	}
}

func TestRoutes_RequireAdmin(t *testing.T) {
	h := newTestHandler(t)
	router := logout.Routes(h, h.SessionMgr)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
