package achievementstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*mongo.Database, *testutil.Fixtures, *achievementstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return db, testutil.NewFixtures(t, db), achievementstore.New(db)
}

func TestStore_Unlock(t *testing.T) {
	db, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "u@x.com")
	a := fx.CreateAchievement(ctx, "First Steps", 25)

	row, err := store.Unlock(ctx, a.ID, u.ID)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if row.User != u.ID || row.Achievement != a.ID || row.UnlockedAt.IsZero() {
		t.Errorf("unexpected row %+v", row)
	}

	if _, err := store.Unlock(ctx, a.ID, u.ID); !errors.Is(err, achievementstore.ErrAlreadyUnlocked) {
		t.Errorf("second unlock: got %v", err)
	}

	got := fx.GetUser(ctx, u.ID)
	if got.Stats.Points != 25 {
		t.Errorf("points = %d, want exactly one increment of 25", got.Stats.Points)
	}
	if len(got.Achievements) != 1 || got.Achievements[0] != a.ID {
		t.Errorf("achievements = %v", got.Achievements)
	}
	n, _ := db.Collection("user_achievements").CountDocuments(ctx, bson.M{"user": u.ID})
	if n != 1 {
		t.Errorf("unlock rows = %d, want 1", n)
	}
}

func TestStore_Unlock_NotFound(t *testing.T) {
	_, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "u@x.com")
	a := fx.CreateAchievement(ctx, "Explorer", 5)

	if _, err := store.Unlock(ctx, primitive.NewObjectID(), u.ID); !errors.Is(err, achievementstore.ErrNotFound) {
		t.Errorf("missing achievement: got %v", err)
	}
	if _, err := store.Unlock(ctx, a.ID, primitive.NewObjectID()); !errors.Is(err, achievementstore.ErrUserNotFound) {
		t.Errorf("missing user: got %v", err)
	}
}

func TestStore_Unlock_Concurrent(t *testing.T) {
	_, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "u@x.com")
	a := fx.CreateAchievement(ctx, "Speedrun", 10)

	const racers = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Unlock(ctx, a.ID, u.ID)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, achievementstore.ErrAlreadyUnlocked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("successful unlocks = %d, want 1", ok)
	}
	if p := fx.GetUser(ctx, u.ID).Stats.Points; p != 10 {
		t.Errorf("points = %d, want 10", p)
	}
}

func TestStore_CreateUpdateValidation(t *testing.T) {
	_, _, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, achievementstore.NewAchievement{
		Title: "Night Owl", Description: "<i>Late</i> event", Points: 15, Rarity: "Rare", Category: "Events",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Rarity != "rare" || a.Category != "events" || a.Description != "Late event" {
		t.Errorf("not normalized: %+v", a)
	}

	tests := []struct {
		name string
		in   achievementstore.NewAchievement
		kind apperr.Kind
	}{
		{"duplicate title", achievementstore.NewAchievement{Title: "night owl"}, apperr.KindConflict},
		{"missing title", achievementstore.NewAchievement{Points: 1}, apperr.KindValidation},
		{"negative points", achievementstore.NewAchievement{Title: "X", Points: -1}, apperr.KindValidation},
		{"bad rarity", achievementstore.NewAchievement{Title: "Y", Rarity: "mythic"}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.in); apperr.KindOf(err) != tt.kind {
				t.Errorf("got %v, want kind %v", err, tt.kind)
			}
		})
	}

	pts := 40
	up, err := store.Update(ctx, a.ID, achievementstore.Update{Points: &pts})
	if err != nil || up.Points != 40 {
		t.Fatalf("Update: %v, %+v", err, up)
	}
	neg := -2
	if _, err := store.Update(ctx, a.ID, achievementstore.Update{Points: &neg}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("negative points update: got %v", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), achievementstore.Update{Points: &pts}); !errors.Is(err, achievementstore.ErrNotFound) {
		t.Errorf("update missing: got %v", err)
	}

	list, total, err := store.List(ctx, achievementstore.Filter{Category: "events"}, paging.Params{Page: 1, Limit: 10})
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("List = %v, %d, %v", list, total, err)
	}
}

func TestStore_Delete_Cascades(t *testing.T) {
	db, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "u@x.com")
	a := fx.CreateAchievement(ctx, "Collector", 30)
	if _, err := store.Unlock(ctx, a.ID, u.ID); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, _ := db.Collection("user_achievements").CountDocuments(ctx, bson.M{"achievement": a.ID})
	if n != 0 {
		t.Errorf("unlock rows left = %d", n)
	}
	got := fx.GetUser(ctx, u.ID)
	if len(got.Achievements) != 0 {
		t.Errorf("achievements = %v, want empty", got.Achievements)
	}
	if got.Stats.Points != 30 {
		t.Errorf("points = %d, deleting should not refund", got.Stats.Points)
	}
	if err := store.Delete(ctx, a.ID); !errors.Is(err, achievementstore.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	_, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "u@x.com")
	first := fx.CreateAchievement(ctx, "One", 1)
	second := fx.CreateAchievement(ctx, "Two", 2)
	fx.CreateAchievement(ctx, "Locked", 3)
	for _, a := range []primitive.ObjectID{first.ID, second.ID} {
		if _, err := store.Unlock(ctx, a, u.ID); err != nil {
			t.Fatalf("Unlock: %v", err)
		}
	}

	got, err := store.ListForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID || got[0].Title != "Two" || got[0].UnlockedAt.IsZero() {
		t.Errorf("newest first expected, got %+v", got[0])
	}
}

const catalog = `
[[achievement]]
title = "First Steps"
description = "Join your first club"
icon = "🚀"
points = 10
rarity = "common"
category = "community"

[[achievement]]
title = "Legend"
points = 500
rarity = "legendary"
`

func TestDecodeCatalog(t *testing.T) {
	c, err := achievementstore.DecodeCatalog(strings.NewReader(catalog))
	if err != nil {
		t.Fatalf("DecodeCatalog: %v", err)
	}
	if len(c.Achievements) != 2 || c.Achievements[1].Points != 500 {
		t.Errorf("unexpected catalog %+v", c)
	}
	if _, err := achievementstore.DecodeCatalog(strings.NewReader("[[achievement]]\ntitel = \"x\"\n")); err == nil {
		t.Error("unknown key should be rejected")
	}
}

func TestStore_Seed(t *testing.T) {
	db, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateAchievement(ctx, "first steps", 1)

	path := filepath.Join(t.TempDir(), "achievements.toml")
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := achievementstore.LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("LoadCatalogFile: %v", err)
	}

	inserted, err := store.Seed(ctx, c)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
	got, err := store.GetByID(ctx, existing.ID)
	if err != nil || got.Points != 10 || got.Title != "First Steps" {
		t.Errorf("existing entry not updated in place: %+v, %v", got, err)
	}

	again, err := store.Seed(ctx, c)
	if err != nil || again != 0 {
		t.Errorf("reseed inserted %d, %v", again, err)
	}
	n, _ := db.Collection("achievements").CountDocuments(ctx, bson.M{})
	if n != 2 {
		t.Errorf("catalog size = %d, want 2", n)
	}
}
