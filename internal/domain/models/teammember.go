// internal/domain/models/teammember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamMember is a roster entry for the "meet the team" page.
// Removal is a soft delete: IsActive goes false.
type TeamMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Role     string             `bson:"role" json:"role"`
	Bio      string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	Order    int                `bson:"order" json:"order"`
	LinkedIn string             `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	GitHub   string             `bson:"github,omitempty" json:"github,omitempty"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	IsActive bool               `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
