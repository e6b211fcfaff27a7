package admin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/achievements"
	"github.com/dalemusser/clubhub/internal/app/features/admin"
	"github.com/dalemusser/clubhub/internal/app/features/clubs"
	"github.com/dalemusser/clubhub/internal/app/features/events"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*admin.Handler, http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	log := zap.NewNop()
	h := admin.NewHandler(db, nil, log)
	router := admin.Routes(h, testutil.SessionManager(t), admin.Editors{
		Clubs:        clubs.NewHandler(db, nil, log),
		Events:       events.NewHandler(db, nil, log),
		Achievements: achievements.NewHandler(db, nil, log),
	})
	return h, router, testutil.NewFixtures(t, db)
}

func asAdmin(r *http.Request) *http.Request {
	return testutil.WithAdmin(r, testutil.AdminUser())
}

func TestServeStats(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "a@x.com")
	fx.CreateUser(ctx, "b@x.com")
	club := fx.CreateClub(ctx, "Chess", u.ID)
	fx.CreateEvent(ctx, "Blitz", club.ID, u.ID, time.Now().Add(48*time.Hour), 0)
	fx.CreateAchievement(ctx, "First Move", 5)
	fx.CreateNotice(ctx, "Welcome", "high")
	fx.CreateTeamMember(ctx, "Sam", 1)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(httptest.NewRequest("GET", "/stats", nil)))
	rec.AssertStatus(t, http.StatusOK)

	var s map[string]int64
	rec.Envelope(t, &s)
	want := map[string]int64{
		"users": 2, "clubs": 1, "events": 1, "upcomingEvents": 1,
		"achievements": 1, "unlocks": 0, "activeNotices": 1, "activeTeamMembers": 1,
	}
	for k, v := range want {
		if s[k] != v {
			t.Errorf("%s = %d, want %d", k, s[k], v)
		}
	}
}

func TestServeEvents_PopulatesNames(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "host@x.com")
	club := fx.CreateClub(ctx, "Astronomy", u.ID)
	for i := 0; i < 3; i++ {
		fx.CreateEvent(ctx, "Star party", club.ID, u.ID, time.Now().Add(time.Duration(i+1)*time.Hour), 0)
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(httptest.NewRequest("GET", "/events?page=2&limit=2", nil)))
	rec.AssertStatus(t, http.StatusOK)

	var rows []struct {
		ClubName    string `json:"clubName"`
		CreatorName string `json:"creatorName"`
	}
	env := rec.Envelope(t, &rows)
	if env.Page != 2 || env.Limit != 2 || env.Total == nil || *env.Total != 3 {
		t.Errorf("paging = page %d limit %d total %v", env.Page, env.Limit, env.Total)
	}
	if len(rows) != 1 || rows[0].ClubName != "Astronomy" || rows[0].CreatorName != "host" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestServeUsers_ClubNames(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "joiner@x.com")
	fx.CreateClub(ctx, "Poetry", u.ID)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(httptest.NewRequest("GET", "/users", nil)))
	rec.AssertStatus(t, http.StatusOK)
	var rows []struct {
		Email     string   `json:"email"`
		ClubNames []string `json:"clubNames"`
	}
	rec.Envelope(t, &rows)
	if len(rows) != 1 || len(rows[0].ClubNames) != 1 || rows[0].ClubNames[0] != "Poetry" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestHandleDeleteUser_Cascades(t *testing.T) {
	h, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	u := fx.CreateUser(ctx, "leaving@x.com")
	club := fx.CreateClub(ctx, "Rowing", owner.ID)
	ev := fx.CreateEvent(ctx, "Regatta", club.ID, owner.ID, time.Now().Add(time.Hour), 0)
	if _, err := h.Clubs.Join(ctx, club.ID, u.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := h.Events.Register(ctx, ev.ID, u.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(httptest.NewRequest("DELETE", "/users/"+u.ID.Hex(), nil)))
	rec.AssertStatus(t, http.StatusOK)

	c, _ := h.Clubs.GetByID(ctx, club.ID)
	if c.HasMember(u.ID) {
		t.Error("deleted user still a club member")
	}
	e, _ := h.Events.GetByID(ctx, ev.ID)
	if e.HasParticipant(u.ID) {
		t.Error("deleted user still registered")
	}
	err := fx.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Err()
	if err != mongo.ErrNoDocuments {
		t.Errorf("user still present: %v", err)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(httptest.NewRequest("DELETE", "/users/"+u.ID.Hex(), nil)))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestEditors_AreMounted(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAchievement(ctx, "Old name", 5)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, asAdmin(testutil.NewJSONRequest(t, "PUT", "/achievements/"+a.ID.Hex(),
		map[string]string{"title": "New name"})))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "New name")
}

func TestRoutes_RequireAdmin(t *testing.T) {
	_, router, _ := setup(t)
	for _, target := range []string{"/stats", "/users", "/clubs", "/events"} {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
}
