// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = apperr.NotFound("event not found")
	ErrClubNotFound      = apperr.NotFound("club not found")
	ErrUserNotFound      = apperr.NotFound("user not found")
	ErrEventFull         = apperr.Conflict("event is full")
	ErrAlreadyRegistered = apperr.Conflict("user is already registered for this event")
	ErrChanged           = apperr.Conflict("event was changed by another request; retry")
)

// registerAttempts bounds retries when the event changes between the
// conditional push and the follow-up read.
const registerAttempts = 3

// updateAttempts bounds how often Update re-reads an event whose
// participants or updated_at moved under it.
const updateAttempts = 3

type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	clubs  *mongo.Collection
	users  *mongo.Collection
	people *userstore.Store
	log    *zap.Logger
	now    func() time.Time

	// beforeUpdateWrite runs between Update's read and its guarded write.
	beforeUpdateWrite func(ctx context.Context)
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		c:      db.Collection("events"),
		clubs:  db.Collection("clubs"),
		users:  db.Collection("users"),
		people: userstore.New(db),
		log:    zap.L(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *Store) userExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// GetByID loads an event.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// Register adds userID to the event's participants. The push re-checks
// capacity and membership in the same update, so the cap holds under
// concurrent registrations. A full event is reported before a duplicate.
func (s *Store) Register(ctx context.Context, eventID, userID primitive.ObjectID) (models.Event, error) {
	ok, err := s.userExists(ctx, userID)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, ErrUserNotFound
	}

	var ev models.Event
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for attempt := 0; attempt < registerAttempts; attempt++ {
			err := s.c.FindOneAndUpdate(ctx,
				bson.M{
					"_id":          eventID,
					"participants": bson.M{"$ne": userID},
					"$or": bson.A{
						bson.M{"max_participants": nil},
						bson.M{"$expr": bson.M{"$lt": bson.A{
							bson.M{"$size": bson.M{"$ifNull": bson.A{"$participants", bson.A{}}}},
							"$max_participants",
						}}},
					},
				},
				bson.M{
					"$push": bson.M{"participants": userID},
					"$set":  bson.M{"updated_at": s.now()},
				},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&ev)
			if err == nil {
				_, err = s.users.UpdateOne(ctx,
					bson.M{"_id": userID},
					bson.M{"$addToSet": bson.M{"events": eventID}})
				return txn.Tolerate(ctx, s.log, "event_register", err)
			}
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return err
			}

			cur, err := s.GetByID(ctx, eventID)
			if err != nil {
				return err
			}
			if cur.IsFull() {
				return ErrEventFull
			}
			if cur.HasParticipant(userID) {
				return ErrAlreadyRegistered
			}
			// A participant left between the two reads; try again.
		}
		return ErrEventFull
	})
	if err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Unregister removes userID from the event and the event from the user.
// Unregistering when not registered is a no-op.
func (s *Store) Unregister(ctx context.Context, eventID, userID primitive.ObjectID) (models.Event, error) {
	var ev models.Event
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": eventID},
			bson.M{"$pull": bson.M{"participants": userID}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&ev)
		if err != nil {
			return notFound(err)
		}
		_, err = s.users.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$pull": bson.M{"events": eventID}})
		return txn.Tolerate(ctx, s.log, "event_unregister", err)
	})
	if err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Delete removes the event and pulls it from every user's events.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = s.users.UpdateMany(ctx,
			bson.M{"events": id},
			bson.M{"$pull": bson.M{"events": id}})
		return err
	})
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Club   primitive.ObjectID
	Status string
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if !f.Club.IsZero() {
		q["club"] = f.Club
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns one page of events by start time, and the filtered total.
func (s *Store) List(ctx context.Context, f Filter, pg paging.Params) ([]models.Event, int64, error) {
	if f.Status != "" && !models.IsValidEventStatus(f.Status) {
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := pg.Apply(options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}))
	events, err := s.find(ctx, q, opts)
	return events, total, err
}

// Upcoming returns events still marked upcoming whose date is today or
// later, soonest first. limit <= 0 means no limit.
func (s *Store) Upcoming(ctx context.Context, limit int64) ([]models.Event, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "starts_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, bson.M{"status": models.EventUpcoming, "date": bson.M{"$gte": today}}, opts)
}

// CountUpcoming counts what Upcoming would return.
func (s *Store) CountUpcoming(ctx context.Context) (int64, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.c.CountDocuments(ctx, bson.M{"status": models.EventUpcoming, "date": bson.M{"$gte": today}})
}

// ListByParticipant returns the events userID is registered for.
func (s *Store) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	return s.find(ctx, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}}))
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// SweepStatuses moves events along upcoming → ongoing → completed by
// wall-clock time. Cancelled events are never touched.
func (s *Store) SweepStatuses(ctx context.Context, now time.Time) (ongoing, completed int64, err error) {
	now = now.UTC()
	ended := bson.M{"$lte": bson.A{
		bson.M{"$add": bson.A{"$starts_at", bson.M{"$multiply": bson.A{"$duration", 60 * 1000}}}},
		now,
	}}

	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status": bson.M{"$in": bson.A{models.EventUpcoming, models.EventOngoing}},
			"$expr":  ended,
		},
		bson.M{"$set": bson.M{"status": models.EventCompleted, "updated_at": now}})
	if err != nil {
		return 0, 0, err
	}
	completed = res.ModifiedCount

	res, err = s.c.UpdateMany(ctx,
		bson.M{"status": models.EventUpcoming, "starts_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.EventOngoing, "updated_at": now}})
	if err != nil {
		return 0, completed, err
	}
	return res.ModifiedCount, completed, nil
}
