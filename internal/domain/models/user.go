// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStats holds counters that accumulate over a user's lifetime.
type UserStats struct {
	Points int `bson:"points" json:"points"`
}

// User is a platform member. Clubs, Achievements and Events are
// denormalized back-references; the authoritative side lives on the
// club (members), the event (participants) and user_achievements.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"`
	ProviderID  *string            `bson:"provider_id,omitempty" json:"providerId,omitempty"` // external identity (Firebase uid / Google sub)
	DisplayName string             `bson:"display_name,omitempty" json:"displayName,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photoURL,omitempty"`

	Stats        UserStats            `bson:"stats" json:"stats"`
	Clubs        []primitive.ObjectID `bson:"clubs" json:"clubs"`
	Achievements []primitive.ObjectID `bson:"achievements" json:"achievements"`
	Events       []primitive.ObjectID `bson:"events" json:"events"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}
