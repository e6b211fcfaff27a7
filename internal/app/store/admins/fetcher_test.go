package adminstore_test

import (
	"testing"

	adminstore "github.com/dalemusser/clubhub/internal/app/store/admins"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetcher_FetchAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := adminstore.New(db)
	f := adminstore.NewFetcher(db)

	a := fx.CreateAdmin(ctx, "boss@x.com", "correct-horse")

	got := f.FetchAdmin(ctx, a.ID.Hex())
	if got == nil || got.Email != "boss@x.com" || got.ID != a.ID.Hex() {
		t.Fatalf("FetchAdmin(active) = %+v", got)
	}

	if err := store.SetActive(ctx, a.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if got := f.FetchAdmin(ctx, a.ID.Hex()); got != nil {
		t.Errorf("FetchAdmin(deactivated) = %+v, want nil", got)
	}

	if got := f.FetchAdmin(ctx, primitive.NewObjectID().Hex()); got != nil {
		t.Errorf("FetchAdmin(missing) = %+v, want nil", got)
	}
	if got := f.FetchAdmin(ctx, "not-an-id"); got != nil {
		t.Errorf("FetchAdmin(malformed) = %+v, want nil", got)
	}
}
