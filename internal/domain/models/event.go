// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event locations.
const (
	LocationOnline  = "online"
	LocationOffline = "offline"
	LocationHybrid  = "hybrid"
)

// Event statuses. Cancelled is terminal and only set by an admin.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Event is a scheduled activity owned by a club.
//
// Date holds the calendar day (UTC midnight); Time is the "HH:MM" start
// in UTC and Duration is in minutes. StartsAt is derived from both and
// stored so the status sweep can query it.
type Event struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Club            primitive.ObjectID   `bson:"club" json:"club"`
	Date            time.Time            `bson:"date" json:"date"`
	Time            string               `bson:"time" json:"time"`
	Duration        int                  `bson:"duration" json:"duration"`
	StartsAt        time.Time            `bson:"starts_at" json:"startsAt"`
	Location        string               `bson:"location" json:"location"`
	Venue           string               `bson:"venue,omitempty" json:"venue,omitempty"`
	MeetingLink     string               `bson:"meeting_link,omitempty" json:"meetingLink,omitempty"`
	Status          string               `bson:"status" json:"status"`
	MaxParticipants *int                 `bson:"max_participants" json:"maxParticipants"`
	Participants    []primitive.ObjectID `bson:"participants" json:"participants"`
	CreatedBy       primitive.ObjectID   `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// EndsAt is StartsAt plus Duration.
func (e Event) EndsAt() time.Time {
	return e.StartsAt.Add(time.Duration(e.Duration) * time.Minute)
}

// IsFull reports whether the participant cap has been reached.
func (e Event) IsFull() bool {
	return e.MaxParticipants != nil && len(e.Participants) >= *e.MaxParticipants
}

// HasParticipant reports whether userID is registered.
func (e Event) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsValidLocation reports whether s is a known location kind.
func IsValidLocation(s string) bool {
	switch s {
	case LocationOnline, LocationOffline, LocationHybrid:
		return true
	}
	return false
}

// IsValidEventStatus reports whether s is a known status.
func IsValidEventStatus(s string) bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}
