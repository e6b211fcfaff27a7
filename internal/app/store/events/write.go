package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultDuration is used when an event is created without a duration.
const DefaultDuration = 60

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp and returns the
// UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
}

// ParseClock accepts "HH:MM" (24h) and returns it normalized.
func ParseClock(s string) (string, time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", 0, apperr.Validation("time must be HH:MM")
	}
	return t.Format("15:04"), time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func startsAt(day time.Time, clock string) (time.Time, string, error) {
	norm, offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, "", err
	}
	return day.Add(offset), norm, nil
}

// NewEvent is the input to Create. Participants are emails, either a
// comma-separated string or a list, as the admin console sends them.
type NewEvent struct {
	Title           string
	Description     string
	Club            primitive.ObjectID
	Date            string
	Time            string
	Duration        int
	Location        string
	Venue           string
	MeetingLink     string
	Status          string
	MaxParticipants *int
	Participants    any
	CreatedBy       primitive.ObjectID
}

// WriteResult is a created or updated event plus the participant emails
// that matched no user and were dropped.
type WriteResult struct {
	Event   models.Event
	Unknown []string
}

// Message summarizes dropped participant emails for the response.
func (r WriteResult) Message() string {
	if len(r.Unknown) == 0 {
		return ""
	}
	return "ignored unknown participant emails: " + strings.Join(r.Unknown, ", ")
}

func checkCapacity(max *int, participants int) error {
	if max == nil {
		return nil
	}
	if *max < 1 {
		return apperr.Validation("maxParticipants must be at least 1")
	}
	if participants > *max {
		return apperr.Validation("%d participants exceed maxParticipants %d", participants, *max)
	}
	return nil
}

// resolveParticipants maps the raw participant value to user ids, once
// per user, in the order given.
func (s *Store) resolveParticipants(ctx context.Context, raw any) ([]primitive.ObjectID, []string, error) {
	return s.people.ResolveEmails(ctx, normalize.EmailList(raw))
}

// Create inserts an event. created_by defaults to the club's creator, and
// every resolved participant gets the event added to their events.
func (s *Store) Create(ctx context.Context, in NewEvent) (WriteResult, error) {
	in.Title = normalize.Name(in.Title)
	in.Description = htmlsanitize.PlainText(in.Description)
	if in.Title == "" || in.Description == "" {
		return WriteResult{}, apperr.Validation("title and description are required")
	}
	if in.Club.IsZero() {
		return WriteResult{}, apperr.Validation("club is required")
	}
	day, err := ParseDate(in.Date)
	if err != nil {
		return WriteResult{}, err
	}
	start, clock, err := startsAt(day, in.Time)
	if err != nil {
		return WriteResult{}, err
	}
	if in.Duration < 0 {
		return WriteResult{}, apperr.Validation("duration cannot be negative")
	}
	if in.Duration == 0 {
		in.Duration = DefaultDuration
	}
	in.Location = normalize.Category(in.Location)
	if in.Location == "" {
		in.Location = models.LocationOffline
	}
	if !models.IsValidLocation(in.Location) {
		return WriteResult{}, apperr.Validation("location must be online, offline or hybrid")
	}
	in.Status = normalize.Category(in.Status)
	if in.Status == "" {
		in.Status = models.EventUpcoming
	}
	if !models.IsValidEventStatus(in.Status) {
		return WriteResult{}, apperr.Validation("unknown status %q", in.Status)
	}

	var club struct {
		CreatedBy primitive.ObjectID `bson:"created_by"`
	}
	if err := s.clubs.FindOne(ctx, bson.M{"_id": in.Club},
		options.FindOne().SetProjection(bson.M{"created_by": 1})).Decode(&club); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return WriteResult{}, ErrClubNotFound
		}
		return WriteResult{}, err
	}
	if in.CreatedBy.IsZero() {
		in.CreatedBy = club.CreatedBy
	}

	ids, unknown, err := s.resolveParticipants(ctx, in.Participants)
	if err != nil {
		return WriteResult{}, err
	}
	if err := checkCapacity(in.MaxParticipants, len(ids)); err != nil {
		return WriteResult{}, err
	}

	now := s.now()
	ev := models.Event{
		ID:              primitive.NewObjectID(),
		Title:           in.Title,
		Description:     in.Description,
		Club:            in.Club,
		Date:            day,
		Time:            clock,
		Duration:        in.Duration,
		StartsAt:        start,
		Location:        in.Location,
		Venue:           normalize.Name(in.Venue),
		MeetingLink:     strings.TrimSpace(in.MeetingLink),
		Status:          in.Status,
		MaxParticipants: in.MaxParticipants,
		Participants:    ids,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, ev); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := s.users.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": ids}},
			bson.M{"$addToSet": bson.M{"events": ev.ID}})
		return txn.Tolerate(ctx, s.log, "event_create", err)
	})
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Event: ev, Unknown: unknown}, nil
}

// Update holds admin-editable fields. Nil fields are left alone.
// Participants replaces the whole list when set.
type Update struct {
	Title           *string
	Description     *string
	Date            *string
	Time            *string
	Duration        *int
	Location        *string
	Venue           *string
	MeetingLink     *string
	Status          *string
	MaxParticipants *int
	ClearMax        bool
	Participants    any
}

// Update edits an event. When the participant list changes, removed users
// lose the event from their events and added users gain it. The write is
// conditional on the participants and updated_at that were read, so a
// registration landing in between is never overwritten; Update re-reads and
// tries again, and returns ErrChanged if the event keeps moving.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (WriteResult, error) {
	for attempt := 0; attempt < updateAttempts; attempt++ {
		res, err := s.update(ctx, id, upd)
		if !errors.Is(err, errStale) {
			return res, err
		}
	}
	return WriteResult{}, ErrChanged
}

var errStale = errors.New("event changed since read")

func (s *Store) update(ctx context.Context, id primitive.ObjectID, upd Update) (WriteResult, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return WriteResult{}, err
	}
	ev := *cur
	set := bson.M{}

	if upd.Title != nil {
		if ev.Title = normalize.Name(*upd.Title); ev.Title == "" {
			return WriteResult{}, apperr.Validation("title cannot be empty")
		}
		set["title"] = ev.Title
	}
	if upd.Description != nil {
		if ev.Description = htmlsanitize.PlainText(*upd.Description); ev.Description == "" {
			return WriteResult{}, apperr.Validation("description cannot be empty")
		}
		set["description"] = ev.Description
	}
	if upd.Date != nil || upd.Time != nil {
		day := ev.Date
		clock := ev.Time
		if upd.Date != nil {
			if day, err = ParseDate(*upd.Date); err != nil {
				return WriteResult{}, err
			}
		}
		if upd.Time != nil {
			clock = *upd.Time
		}
		start, norm, err := startsAt(day, clock)
		if err != nil {
			return WriteResult{}, err
		}
		ev.Date, ev.Time, ev.StartsAt = day, norm, start
		set["date"], set["time"], set["starts_at"] = day, norm, start
	}
	if upd.Duration != nil {
		if *upd.Duration <= 0 {
			return WriteResult{}, apperr.Validation("duration must be positive")
		}
		ev.Duration = *upd.Duration
		set["duration"] = ev.Duration
	}
	if upd.Location != nil {
		loc := normalize.Category(*upd.Location)
		if !models.IsValidLocation(loc) {
			return WriteResult{}, apperr.Validation("location must be online, offline or hybrid")
		}
		ev.Location = loc
		set["location"] = loc
	}
	if upd.Venue != nil {
		ev.Venue = normalize.Name(*upd.Venue)
		set["venue"] = ev.Venue
	}
	if upd.MeetingLink != nil {
		ev.MeetingLink = strings.TrimSpace(*upd.MeetingLink)
		set["meeting_link"] = ev.MeetingLink
	}
	if upd.Status != nil {
		st := normalize.Category(*upd.Status)
		if !models.IsValidEventStatus(st) {
			return WriteResult{}, apperr.Validation("unknown status %q", st)
		}
		ev.Status = st
		set["status"] = st
	}
	switch {
	case upd.ClearMax:
		ev.MaxParticipants = nil
		set["max_participants"] = nil
	case upd.MaxParticipants != nil:
		m := *upd.MaxParticipants
		ev.MaxParticipants = &m
		set["max_participants"] = m
	}

	var added, removed []primitive.ObjectID
	var unknown []string
	if upd.Participants != nil {
		ids, unk, err := s.resolveParticipants(ctx, upd.Participants)
		if err != nil {
			return WriteResult{}, err
		}
		unknown = unk
		added, removed = diffIDs(ev.Participants, ids)
		ev.Participants = ids
		set["participants"] = ids
	}
	if err := checkCapacity(ev.MaxParticipants, len(ev.Participants)); err != nil {
		return WriteResult{}, err
	}

	ev.UpdatedAt = s.now()
	set["updated_at"] = ev.UpdatedAt

	if s.beforeUpdateWrite != nil {
		s.beforeUpdateWrite(ctx)
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.UpdateOne(ctx,
			bson.M{
				"_id":          id,
				"updated_at":   cur.UpdatedAt,
				"participants": cur.Participants,
			},
			bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errStale
		}
		if len(removed) > 0 {
			_, err := s.users.UpdateMany(ctx,
				bson.M{"_id": bson.M{"$in": removed}},
				bson.M{"$pull": bson.M{"events": id}})
			if err := txn.Tolerate(ctx, s.log, "event_update", err); err != nil {
				return err
			}
		}
		if len(added) > 0 {
			_, err := s.users.UpdateMany(ctx,
				bson.M{"_id": bson.M{"$in": added}},
				bson.M{"$addToSet": bson.M{"events": id}})
			return txn.Tolerate(ctx, s.log, "event_update", err)
		}
		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Event: ev, Unknown: unknown}, nil
}

// diffIDs returns ids in next but not prev, and in prev but not next.
func diffIDs(prev, next []primitive.ObjectID) (added, removed []primitive.ObjectID) {
	in := func(set []primitive.ObjectID) map[primitive.ObjectID]struct{} {
		m := make(map[primitive.ObjectID]struct{}, len(set))
		for _, id := range set {
			m[id] = struct{}{}
		}
		return m
	}
	p, n := in(prev), in(next)
	for _, id := range next {
		if _, ok := p[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := n[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
