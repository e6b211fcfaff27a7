package achievementstore

import (
	"context"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Catalog is the on-disk seed format:
//
//	[[achievement]]
//	title = "First Steps"
//	description = "Join your first club"
//	icon = "🚀"
//	points = 10
//	rarity = "common"
//	category = "community"
type Catalog struct {
	Achievements []SeedEntry `toml:"achievement"`
}

type SeedEntry struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Icon        string `toml:"icon"`
	Points      int    `toml:"points"`
	Rarity      string `toml:"rarity"`
	Category    string `toml:"category"`
}

// DecodeCatalog parses a TOML catalog. Unknown keys are rejected so a typo
// does not silently drop a field.
func DecodeCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode achievement catalog: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Catalog{}, fmt.Errorf("achievement catalog: unknown keys %v", undec)
	}
	return c, nil
}

// LoadCatalogFile reads a TOML catalog from path.
func LoadCatalogFile(path string) (Catalog, error) {
	var c Catalog
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Catalog{}, fmt.Errorf("read achievement catalog %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Catalog{}, fmt.Errorf("achievement catalog %s: unknown keys %v", path, undec)
	}
	return c, nil
}

// Seed upserts every catalog entry keyed by case-insensitive title.
// Existing entries get their fields overwritten; their ids and unlocks are
// kept. It returns how many entries were newly inserted.
func (s *Store) Seed(ctx context.Context, c Catalog) (int, error) {
	inserted := 0
	for i, e := range c.Achievements {
		in := NewAchievement{
			Title:       e.Title,
			Description: e.Description,
			Icon:        e.Icon,
			Points:      e.Points,
			Rarity:      e.Rarity,
			Category:    e.Category,
		}
		if err := in.normalize(); err != nil {
			return inserted, fmt.Errorf("catalog entry %d (%q): %w", i+1, e.Title, err)
		}
		now := s.now()
		res, err := s.c.UpdateOne(ctx,
			bson.M{"title_ci": text.Fold(in.Title)},
			bson.M{
				"$set": bson.M{
					"title":       in.Title,
					"description": in.Description,
					"icon":        in.Icon,
					"points":      in.Points,
					"rarity":      in.Rarity,
					"category":    in.Category,
					"updated_at":  now,
				},
				"$setOnInsert": bson.M{
					"_id":        primitive.NewObjectID(),
					"created_at": now,
				},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	s.log.Info("achievement catalog seeded",
		zap.Int("entries", len(c.Achievements)),
		zap.Int("inserted", inserted))
	return inserted, nil
}
