package events_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/events"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*events.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return events.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func registerReq(t *testing.T, action string, eventID, userID primitive.ObjectID) *http.Request {
	req := testutil.NewJSONRequest(t, "POST", "/events/"+eventID.Hex()+"/"+action, map[string]string{"userId": userID.Hex()})
	return testutil.WithChiURLParam(req, "id", eventID.Hex())
}

// An event capped at one: the first registration fills it, the second is
// refused and leaves participants unchanged.
func TestRegistrationScenario(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	u1 := fx.CreateUser(ctx, "u1@x.com")
	u2 := fx.CreateUser(ctx, "u2@x.com")
	club := fx.CreateClub(ctx, "Film", owner.ID)
	ev := fx.CreateEvent(ctx, "Screening", club.ID, owner.ID, time.Now().Add(48*time.Hour), 1)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, registerReq(t, "register", ev.ID, u1.ID))
	rec.AssertStatus(t, http.StatusOK)
	var got models.Event
	rec.Envelope(t, &got)
	if len(got.Participants) != 1 || got.Participants[0] != u1.ID {
		t.Fatalf("participants = %v", got.Participants)
	}

	rec = testutil.NewRecorder()
	h.HandleRegister(rec, registerReq(t, "register", ev.ID, u2.ID))
	rec.AssertStatus(t, http.StatusBadRequest)
	env := rec.Envelope(t, nil)
	if env.Success || env.Error != "conflict" {
		t.Errorf("full envelope = %+v", env)
	}

	after, _ := h.Events.GetByID(ctx, ev.ID)
	if len(after.Participants) != 1 {
		t.Errorf("participants changed: %v", after.Participants)
	}

	rec = testutil.NewRecorder()
	h.HandleUnregister(rec, registerReq(t, "unregister", ev.ID, u1.ID))
	rec.AssertStatus(t, http.StatusOK)
	if u := fx.GetUser(ctx, u1.ID); len(u.Events) != 0 {
		t.Errorf("user events after unregister = %v", u.Events)
	}
}

func TestHandleCreate_ReportsUnknownEmails(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	a := fx.CreateUser(ctx, "a@x.com")
	club := fx.CreateClub(ctx, "Robotics", owner.ID)

	req := testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"title":        "Build day",
		"description":  "Bring parts",
		"club":         club.ID.Hex(),
		"date":         "2030-02-03",
		"time":         "09:30",
		"location":     "offline",
		"participants": "a@x.com, nobody@x.com",
	})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.WithAdmin(req, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)

	var ev models.Event
	env := rec.Envelope(t, &ev)
	if len(ev.Participants) != 1 || ev.Participants[0] != a.ID {
		t.Errorf("participants = %v", ev.Participants)
	}
	if ev.CreatedBy != owner.ID {
		t.Errorf("createdBy = %v, want club creator", ev.CreatedBy)
	}
	rec.AssertContains(t, "nobody@x.com")
	if env.Message == "" {
		t.Error("expected a message listing dropped emails")
	}
}

func TestHandleUpdate_ClearsCap(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	club := fx.CreateClub(ctx, "Choir", owner.ID)
	ev := fx.CreateEvent(ctx, "Rehearsal", club.ID, owner.ID, time.Now().Add(time.Hour), 5)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, "PUT", "/events/"+ev.ID.Hex(), `{"maxParticipants": null, "venue": "Hall B"}`),
		"id", ev.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got models.Event
	rec.Envelope(t, &got)
	if got.MaxParticipants != nil || got.Venue != "Hall B" {
		t.Errorf("unexpected %+v", got)
	}
}

func TestServeList_BadFilters(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, url := range []string{"/events?club=nope", "/events?status=later"} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, httptest.NewRequest("GET", url, nil))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestServeUpcoming(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner@x.com")
	club := fx.CreateClub(ctx, "Hiking", owner.ID)
	fx.CreateEvent(ctx, "Soon", club.ID, owner.ID, time.Now().Add(48*time.Hour), 0)
	fx.CreateEvent(ctx, "Later", club.ID, owner.ID, time.Now().Add(96*time.Hour), 0)
	fx.CreateEvent(ctx, "Past", club.ID, owner.ID, time.Now().Add(-96*time.Hour), 0)

	rec := testutil.NewRecorder()
	h.ServeUpcoming(rec, httptest.NewRequest("GET", "/events/upcoming?limit=1", nil))
	rec.AssertStatus(t, http.StatusOK)
	var got []models.Event
	rec.Envelope(t, &got)
	if len(got) != 1 || got[0].Title != "Soon" {
		t.Errorf("upcoming = %+v", got)
	}
}

func TestRoutes_CreateRequiresAdmin(t *testing.T) {
	h, _ := newTestHandler(t)
	router := events.Routes(h, testutil.SessionManager(t))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/", map[string]string{"title": "x"}))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/"+primitive.NewObjectID().Hex(), nil))
	rec.AssertStatus(t, http.StatusNotFound)
}
