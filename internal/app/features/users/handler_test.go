package users_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/users"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return users.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestHandleSync_LinksThenReuses(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/users/register",
		map[string]string{"email": "Jo@Example.com"}))
	rec.AssertStatus(t, http.StatusCreated)
	var registered models.User
	rec.Envelope(t, &registered)
	if registered.Username != "jo" {
		t.Errorf("username = %q, want email local part", registered.Username)
	}

	body := map[string]string{"providerId": "g-123", "email": "jo@example.com", "displayName": "Jo"}
	rec = testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, "POST", "/users/sync", body))
	rec.AssertStatus(t, http.StatusOK)
	var linked models.User
	rec.Envelope(t, &linked)
	if linked.ID != registered.ID || linked.ProviderID == nil || *linked.ProviderID != "g-123" {
		t.Errorf("sync did not link existing account: %+v", linked)
	}
	if linked.LastLoginAt == nil {
		t.Error("last login not set")
	}

	rec = testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, "POST", "/users/sync",
		map[string]string{"providerId": "g-456", "email": "new@example.com"}))
	rec.AssertStatus(t, http.StatusCreated)
}

func TestHandleRegister_Errors(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "taken@x.com")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"duplicate email", map[string]string{"email": "TAKEN@x.com"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "not-an-email"}, http.StatusBadRequest},
		{"malformed", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/users/register", tt.body))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestUserClubsAndEvents(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "member@x.com")
	other := fx.CreateUser(ctx, "other@x.com")
	mine := fx.CreateClub(ctx, "Chess", u.ID)
	fx.CreateClub(ctx, "Drama", other.ID)
	fx.CreateEvent(ctx, "Open night", mine.ID, u.ID, time.Now().Add(time.Hour), 0)

	router := users.Routes(h)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/"+u.ID.Hex()+"/clubs", nil))
	rec.AssertStatus(t, http.StatusOK)
	var clubs []models.Club
	rec.Envelope(t, &clubs)
	if len(clubs) != 1 || clubs[0].ID != mine.ID {
		t.Errorf("clubs = %+v", clubs)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/"+u.ID.Hex()+"/events", nil))
	rec.AssertStatus(t, http.StatusOK)
	if env := rec.Envelope(t, nil); env.Count == nil || *env.Count != 0 {
		t.Errorf("events count = %v, want 0 before registering", env.Count)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/not-an-id/clubs", nil))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "edit@x.com")

	router := users.Routes(h)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(),
		map[string]string{"username": "  Edith  ", "displayName": "Edith P"}))
	rec.AssertStatus(t, http.StatusOK)
	var got models.User
	rec.Envelope(t, &got)
	if got.Username != "Edith" || got.DisplayName != "Edith P" {
		t.Errorf("updated user = %+v", got)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(), map[string]string{"username": " "}))
	rec.AssertStatus(t, http.StatusBadRequest)
}
