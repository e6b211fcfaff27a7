package teamstore_test

import (
	"errors"
	"testing"

	teamstore "github.com/dalemusser/clubhub/internal/app/store/team"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := teamstore.New(db)

	m, err := store.Create(ctx, teamstore.NewMember{
		Name: "Ada", Role: "Lead", Bio: "<em>Loves</em> compilers", Email: " Ada@X.com ", Order: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !m.IsActive || m.Bio != "Loves compilers" || m.Email != "ada@x.com" {
		t.Errorf("unexpected member %+v", m)
	}

	tests := []struct {
		name string
		in   teamstore.NewMember
	}{
		{"missing name", teamstore.NewMember{Role: "Lead"}},
		{"missing role", teamstore.NewMember{Name: "Bob"}},
		{"negative order", teamstore.NewMember{Name: "Bob", Role: "Dev", Order: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.in); apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("got %v, want validation", err)
			}
		})
	}
}

func TestStore_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db)

	third := fx.CreateTeamMember(ctx, "Carol", 3)
	first := fx.CreateTeamMember(ctx, "Alice", 1)
	second := fx.CreateTeamMember(ctx, "Bob", 2)

	if err := store.Deactivate(ctx, second.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := store.Deactivate(ctx, second.ID); err != nil {
		t.Errorf("second deactivate: %v", err)
	}
	if err := store.Deactivate(ctx, primitive.NewObjectID()); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}

	got, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != third.ID {
		t.Errorf("active list = %+v", got)
	}

	// The document is kept and can be restored.
	on := true
	restored, err := store.Update(ctx, second.ID, teamstore.Update{IsActive: &on})
	if err != nil || !restored.IsActive {
		t.Errorf("restore: %+v, %v", restored, err)
	}
	if n, _ := store.CountActive(ctx); n != 3 {
		t.Errorf("CountActive = %d", n)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db)

	m := fx.CreateTeamMember(ctx, "Dana", 0)
	img := "/uploads/team/abc.png"
	role := "Treasurer"
	got, err := store.Update(ctx, m.ID, teamstore.Update{Image: &img, Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Image != img || got.Role != role || got.Name != "Dana" {
		t.Errorf("unexpected %+v", got)
	}
	empty := " "
	if _, err := store.Update(ctx, m.ID, teamstore.Update{Name: &empty}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty name: %v", err)
	}
}
