package login_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/login"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := login.NewHandler(db, testutil.SessionManager(t), ratelimit.NewLoginLimiter(100), nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func loginReq(t *testing.T, email, password string) *http.Request {
	return testutil.NewJSONRequest(t, "POST", "/admin/login", map[string]string{"email": email, "password": password})
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateAdmin(ctx, "boss@x.com", "correct-horse")

	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginReq(t, "Boss@X.com", "correct-horse"))
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Token string `json:"token"`
		Admin struct {
			Email string `json:"email"`
		} `json:"admin"`
	}
	rec.Envelope(t, &got)
	if got.Token == "" || got.Admin.Email != "boss@x.com" {
		t.Errorf("unexpected login response %+v", got)
	}
	if a, err := h.SessionMgr.ParseToken(got.Token); err != nil || a.Email != "boss@x.com" {
		t.Errorf("token does not parse back: %v %+v", err, a)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestHandleLogin_Refusals(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateAdmin(ctx, "active@x.com", "correct-horse")
	off := fx.CreateAdmin(ctx, "off@x.com", "correct-horse")
	if _, err := fx.DB().Collection("admins").UpdateOne(ctx, bson.M{"_id": off.ID},
		bson.M{"$set": bson.M{"is_active": false}}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"unknown email", "ghost@x.com", "correct-horse", http.StatusUnauthorized},
		{"wrong password", "active@x.com", "battery-staple", http.StatusUnauthorized},
		{"inactive", "off@x.com", "correct-horse", http.StatusUnauthorized},
		{"missing password", "active@x.com", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, loginReq(t, tt.email, tt.password))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateAdmin(ctx, "boss@x.com", "correct-horse")

	// Five attempts per email are allowed; the sixth is refused even with
	// the right password.
	for i := 0; i < 5; i++ {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, loginReq(t, "boss@x.com", "nope-nope"))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginReq(t, "boss@x.com", "correct-horse"))
	rec.AssertStatus(t, http.StatusTooManyRequests)

	env := rec.Envelope(t, nil)
	if want := "Too many login attempts for this account. Please wait a few minutes."; env.Message != want {
		t.Errorf("message = %q, want %q", env.Message, want)
	}
}
