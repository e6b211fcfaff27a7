// internal/domain/models/achievement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rarity tiers for achievements.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Achievement is a catalog entry a user can unlock once.
type Achievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon" json:"icon"`
	Points      int                `bson:"points" json:"points"`
	Rarity      string             `bson:"rarity" json:"rarity"`
	Category    string             `bson:"category" json:"category"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserAchievement records that a user unlocked an achievement.
// Exactly one document per (user, achievement).
type UserAchievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Achievement primitive.ObjectID `bson:"achievement" json:"achievement"`
	UnlockedAt  time.Time          `bson:"unlocked_at" json:"unlockedAt"`
}

// IsValidRarity reports whether s is a known rarity tier.
func IsValidRarity(s string) bool {
	switch s {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}
