package noticestore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	noticestore "github.com/dalemusser/clubhub/internal/app/store/notices"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Sanitizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := noticestore.New(db)

	n, err := store.Create(ctx, noticestore.NewNotice{
		Title:   "  Hack night  ",
		Content: `<p onclick="x()">Bring <strong>snacks</strong></p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Title != "Hack night" || n.Priority != models.PriorityNormal || !n.IsActive {
		t.Errorf("unexpected notice %+v", n)
	}
	if strings.Contains(n.Content, "script") || strings.Contains(n.Content, "onclick") {
		t.Errorf("content not sanitized: %q", n.Content)
	}
	if !strings.Contains(n.Content, "<strong>snacks</strong>") {
		t.Errorf("formatting lost: %q", n.Content)
	}

	tests := []struct {
		name string
		in   noticestore.NewNotice
	}{
		{"missing title", noticestore.NewNotice{Content: "x"}},
		{"script only", noticestore.NewNotice{Title: "t", Content: "<script>x</script>"}},
		{"bad priority", noticestore.NewNotice{Title: "t", Content: "x", Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.in); apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("got %v, want validation", err)
			}
		})
	}
}

func TestStore_ListActive_Order(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := noticestore.New(db)

	low := fx.CreateNotice(ctx, "Low", models.PriorityLow)
	time.Sleep(5 * time.Millisecond)
	oldHigh := fx.CreateNotice(ctx, "Old high", models.PriorityHigh)
	time.Sleep(5 * time.Millisecond)
	newHigh := fx.CreateNotice(ctx, "New high", models.PriorityHigh)
	hidden := fx.CreateNotice(ctx, "Hidden", models.PriorityHigh)

	off := false
	if _, err := store.Update(ctx, hidden.ID, noticestore.Update{IsActive: &off}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	want := []primitive.ObjectID{newHigh.ID, oldHigh.ID, low.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %q", i, got[i].Title)
		}
	}

	if n, _ := store.CountActive(ctx); n != 3 {
		t.Errorf("CountActive = %d", n)
	}
	all, _ := store.ListAll(ctx)
	if len(all) != 4 {
		t.Errorf("ListAll = %d", len(all))
	}
}

func TestStore_UpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := noticestore.New(db)

	n := fx.CreateNotice(ctx, "Notice", models.PriorityNormal)
	high := "HIGH"
	got, err := store.Update(ctx, n.ID, noticestore.Update{Priority: &high})
	if err != nil || got.Priority != models.PriorityHigh || got.Rank != 0 {
		t.Errorf("Update priority: %+v, %v", got, err)
	}

	if err := store.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, n.ID); !errors.Is(err, noticestore.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
	if err := store.Delete(ctx, n.ID); !errors.Is(err, noticestore.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
