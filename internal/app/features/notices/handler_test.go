package notices_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/notices"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*notices.Handler, http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := notices.NewHandler(db, nil, zap.NewNop())
	return h, notices.Routes(h, testutil.SessionManager(t)), testutil.NewFixtures(t, db)
}

func TestCreate_SanitizesAndRecordsAuthor(t *testing.T) {
	_, router, _ := setup(t)

	admin := testutil.AdminUser()
	req := testutil.WithAdmin(testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"title":    "Maintenance",
		"content":  `<p onclick="x()">Down <b>tonight</b></p><script>alert(1)</script>`,
		"priority": "high",
	}), admin)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var n models.Notice
	rec.Envelope(t, &n)
	if strings.Contains(n.Content, "script") || strings.Contains(n.Content, "onclick") {
		t.Errorf("content not sanitized: %q", n.Content)
	}
	if !strings.Contains(n.Content, "<b>tonight</b>") {
		t.Errorf("formatting lost: %q", n.Content)
	}
	if n.CreatedBy == nil || n.CreatedBy.Hex() != admin.ID {
		t.Errorf("createdBy = %v, want %s", n.CreatedBy, admin.ID)
	}
}

func TestServeActive_OrderAndVisibility(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateNotice(ctx, "Low", "low")
	fx.CreateNotice(ctx, "High", "high")
	hidden := fx.CreateNotice(ctx, "Hidden", "normal")

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithAdmin(
		testutil.NewJSONRequest(t, "PUT", "/"+hidden.ID.Hex(), `{"isActive": false}`), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.Notice
	rec.Envelope(t, &list)
	if len(list) != 2 || list[0].Title != "High" || list[1].Title != "Low" {
		t.Errorf("active notices = %+v", list)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithAdmin(httptest.NewRequest("GET", "/all", nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	if env := rec.Envelope(t, nil); env.Count == nil || *env.Count != 3 {
		t.Errorf("all count = %v, want 3", env.Count)
	}
}

func TestWrites_RequireAdminAndValidate(t *testing.T) {
	_, router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n := fx.CreateNotice(ctx, "Bye", "low")

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/"+n.ID.Hex(), nil))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithAdmin(testutil.NewJSONRequest(t, "POST", "/",
		map[string]string{"title": "x", "content": "y", "priority": "urgent"}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithAdmin(httptest.NewRequest("DELETE", "/"+n.ID.Hex(), nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithAdmin(httptest.NewRequest("DELETE", "/"+n.ID.Hex(), nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
