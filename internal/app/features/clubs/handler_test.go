package clubs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/clubs"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*clubs.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return clubs.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func joinReq(t *testing.T, action string, clubID, userID primitive.ObjectID) *http.Request {
	req := testutil.NewJSONRequest(t, "POST", "/clubs/"+clubID.Hex()+"/"+action, map[string]string{"userId": userID.Hex()})
	return testutil.WithChiURLParam(req, "id", clubID.Hex())
}

// Create, join twice, then check the second join left the club unchanged.
func TestMembershipScenario(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := fx.CreateUser(ctx, "u1@x.com")
	u2 := fx.CreateUser(ctx, "u2@x.com")

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/clubs", map[string]string{
		"name":        "Code Constellation",
		"description": "Coding under the stars",
		"icon":        "✨",
		"color":       "#112233",
		"gradient":    "from-indigo-500 to-purple-500",
		"category":    "technology",
		"createdBy":   u1.ID.Hex(),
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var club models.Club
	if env := rec.Envelope(t, &club); !env.Success {
		t.Fatalf("create failed: %+v", env)
	}
	if len(club.Members) != 1 || club.Members[0].User != u1.ID || club.Members[0].Role != models.ClubRoleAdmin {
		t.Fatalf("members = %+v", club.Members)
	}

	rec = testutil.NewRecorder()
	h.HandleJoin(rec, joinReq(t, "join", club.ID, u2.ID))
	rec.AssertStatus(t, http.StatusOK)
	rec.Envelope(t, &club)
	if len(club.Members) != 2 || club.Members[1].Role != models.ClubRoleMember {
		t.Errorf("after join members = %+v", club.Members)
	}

	rec = testutil.NewRecorder()
	h.HandleJoin(rec, joinReq(t, "join", club.ID, u2.ID))
	rec.AssertStatus(t, http.StatusBadRequest)
	if env := rec.Envelope(t, nil); env.Success || env.Error != "conflict" {
		t.Errorf("second join envelope = %+v", env)
	}

	got, err := h.Clubs.GetByID(ctx, club.ID)
	if err != nil || len(got.Members) != 2 {
		t.Errorf("members after duplicate join = %d, %v", len(got.Members), err)
	}
	if u := fx.GetUser(ctx, u2.ID); len(u.Clubs) != 1 {
		t.Errorf("u2 clubs = %v", u.Clubs)
	}
}

func TestHandleLeave_Idempotent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	member := fx.CreateUser(ctx, "m@x.com")
	club := fx.CreateClub(ctx, "Chess", owner.ID)
	if _, err := h.Clubs.Join(ctx, club.ID, member.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		h.HandleLeave(rec, joinReq(t, "leave", club.ID, member.ID))
		rec.AssertStatus(t, http.StatusOK)
	}
	got, _ := h.Clubs.GetByID(ctx, club.ID)
	if got.HasMember(member.ID) {
		t.Error("member still present after leave")
	}
}

func TestHandleJoin_Errors(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "u@x.com")

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"bad club id", testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, "POST", "/clubs/x/join", map[string]string{"userId": u.ID.Hex()}), "id", "x"),
			http.StatusBadRequest},
		{"missing userId", testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, "POST", "/clubs/x/join", map[string]string{}), "id", primitive.NewObjectID().Hex()),
			http.StatusBadRequest},
		{"unknown club", joinReq(t, "join", primitive.NewObjectID(), u.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleJoin(rec, tt.req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestServeGet_PopulateMembers(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	club := fx.CreateClub(ctx, "Astronomy", owner.ID)

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/clubs/"+club.ID.Hex()+"?populate=members", nil), "id", club.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Name    string `json:"name"`
		Members []struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			Role string `json:"role"`
		} `json:"members"`
	}
	rec.Envelope(t, &got)
	if len(got.Members) != 1 || got.Members[0].User.Email != "owner@x.com" || got.Members[0].Role != models.ClubRoleAdmin {
		t.Errorf("populated members = %+v", got.Members)
	}
}

func TestServeList_Paginated(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	for _, name := range []string{"A", "B", "C"} {
		fx.CreateClub(ctx, name, owner.ID)
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/clubs?page=2&limit=2", nil))
	rec.AssertStatus(t, http.StatusOK)
	env := rec.Envelope(t, nil)
	if env.Total == nil || *env.Total != 3 || env.Count == nil || *env.Count != 1 || env.Page != 2 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRoutes_WritesRequireAdmin(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sm := testutil.SessionManager(t)
	router := clubs.Routes(h, sm)

	owner := fx.CreateUser(ctx, "owner@x.com")
	club := fx.CreateClub(ctx, "Drama", owner.ID)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/"+club.ID.Hex(), nil))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	req := testutil.WithAdmin(httptest.NewRequest("DELETE", "/"+club.ID.Hex(), nil), testutil.AdminUser())
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if u := fx.GetUser(ctx, owner.ID); len(u.Clubs) != 0 {
		t.Errorf("owner clubs after delete = %v", u.Clubs)
	}
}
