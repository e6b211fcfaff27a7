// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club roles. The creator is the only admin; everyone who joins is a member.
const (
	ClubRoleAdmin  = "admin"
	ClubRoleMember = "member"
)

// ClubMember is one membership row embedded in a club.
// A user appears at most once per club.
type ClubMember struct {
	User       primitive.ObjectID `bson:"user" json:"user"`
	Role       string             `bson:"role" json:"role"`
	JoinedDate time.Time          `bson:"joined_date" json:"joinedDate"`
}

// Club is a community group with an embedded membership list.
type Club struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon" json:"icon"`
	Color       string             `bson:"color" json:"color"`
	Gradient    string             `bson:"gradient" json:"gradient"`
	Category    string             `bson:"category" json:"category"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	Members     []ClubMember       `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID has a membership row.
func (c Club) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m.User == userID {
			return true
		}
	}
	return false
}
