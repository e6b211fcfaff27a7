// internal/app/store/clubs/clubstore.go
package clubstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = apperr.NotFound("club not found")
	ErrUserNotFound  = apperr.NotFound("user not found")
	ErrAlreadyMember = apperr.Conflict("user is already a member of this club")
	ErrDuplicateName = apperr.Conflict("a club with this name already exists")
	errBadCreator    = apperr.Validation("createdBy does not reference an existing user")
)

type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	users  *mongo.Collection
	events *mongo.Collection
	log    *zap.Logger
	now    func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		c:      db.Collection("clubs"),
		users:  db.Collection("users"),
		events: db.Collection("events"),
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

// NewClub is the input to Create. Every field is required.
type NewClub struct {
	Name        string
	Description string
	Icon        string
	Color       string
	Gradient    string
	Category    string
	CreatedBy   primitive.ObjectID
}

func (n *NewClub) normalize() error {
	n.Name = normalize.Name(n.Name)
	n.Description = htmlsanitize.PlainText(n.Description)
	n.Icon = normalize.Name(n.Icon)
	n.Color = normalize.Name(n.Color)
	n.Gradient = normalize.Name(n.Gradient)
	n.Category = normalize.Category(n.Category)

	var missing []string
	for _, f := range []struct {
		name, val string
	}{
		{"name", n.Name},
		{"description", n.Description},
		{"icon", n.Icon},
		{"color", n.Color},
		{"gradient", n.Gradient},
		{"category", n.Category},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if n.CreatedBy.IsZero() {
		missing = append(missing, "createdBy")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Create inserts a club whose creator is its first (admin) member and
// records the club on the creator.
func (s *Store) Create(ctx context.Context, in NewClub) (models.Club, error) {
	if err := in.normalize(); err != nil {
		return models.Club{}, err
	}
	ok, err := s.userExists(ctx, in.CreatedBy)
	if err != nil {
		return models.Club{}, err
	}
	if !ok {
		return models.Club{}, errBadCreator
	}

	now := s.now()
	club := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		NameCI:      text.Fold(in.Name),
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Gradient:    in.Gradient,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
		Members:     []models.ClubMember{{User: in.CreatedBy, Role: models.ClubRoleAdmin, JoinedDate: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, club); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrDuplicateName
			}
			return err
		}
		_, err := s.users.UpdateOne(ctx,
			bson.M{"_id": in.CreatedBy},
			bson.M{"$addToSet": bson.M{"clubs": club.ID}})
		return txn.Tolerate(ctx, s.log, "club_create", err)
	})
	if err != nil {
		return models.Club{}, err
	}
	return club, nil
}

// Join adds userID as a member. The push only matches when the user is not
// already in members, so concurrent joins cannot create a second row.
func (s *Store) Join(ctx context.Context, clubID, userID primitive.ObjectID) (models.Club, error) {
	ok, err := s.userExists(ctx, userID)
	if err != nil {
		return models.Club{}, err
	}
	if !ok {
		return models.Club{}, ErrUserNotFound
	}

	var club models.Club
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		member := models.ClubMember{User: userID, Role: models.ClubRoleMember, JoinedDate: s.now()}
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": clubID, "members.user": bson.M{"$ne": userID}},
			bson.M{
				"$push": bson.M{"members": member},
				"$set":  bson.M{"updated_at": s.now()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&club)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.missingOrMember(ctx, clubID)
		}
		if err != nil {
			return err
		}

		_, err = s.users.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$addToSet": bson.M{"clubs": clubID}})
		return txn.Tolerate(ctx, s.log, "club_join", err)
	})
	if err != nil {
		return models.Club{}, err
	}
	return club, nil
}

// missingOrMember explains why the conditional join matched nothing.
func (s *Store) missingOrMember(ctx context.Context, clubID primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": clubID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyMember
}

// Leave removes userID from the club. Leaving a club one is not in is a no-op.
func (s *Store) Leave(ctx context.Context, clubID, userID primitive.ObjectID) (models.Club, error) {
	var club models.Club
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": clubID},
			bson.M{"$pull": bson.M{"members": bson.M{"user": userID}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&club)
		if err != nil {
			return notFound(err)
		}
		_, err = s.users.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$pull": bson.M{"clubs": clubID}})
		return txn.Tolerate(ctx, s.log, "club_leave", err)
	})
	if err != nil {
		return models.Club{}, err
	}
	return club, nil
}

// Delete removes the club, its events, and every user back-reference to
// either.
func (s *Store) Delete(ctx context.Context, clubID primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": clubID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := s.users.UpdateMany(ctx,
			bson.M{"clubs": clubID},
			bson.M{"$pull": bson.M{"clubs": clubID}}); err != nil {
			return err
		}

		eventIDs, err := s.eventIDs(ctx, clubID)
		if err != nil || len(eventIDs) == 0 {
			return err
		}
		if _, err := s.events.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": eventIDs}}); err != nil {
			return err
		}
		_, err = s.users.UpdateMany(ctx,
			bson.M{"events": bson.M{"$in": eventIDs}},
			bson.M{"$pull": bson.M{"events": bson.M{"$in": eventIDs}}})
		return err
	})
}

func (s *Store) eventIDs(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.events.Find(ctx, bson.M{"club": clubID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// GetByID loads a club.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Club, error) {
	var c models.Club
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category string
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if c := normalize.Category(f.Category); c != "" {
		q["category"] = c
	}
	return q
}

// List returns one page of clubs ordered by name, and the filtered total.
func (s *Store) List(ctx context.Context, f Filter, pg paging.Params) ([]models.Club, int64, error) {
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := pg.Apply(options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	clubs, err := s.find(ctx, q, opts)
	return clubs, total, err
}

// ListByMember returns every club userID belongs to, by name.
func (s *Store) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Club, error) {
	return s.find(ctx, bson.M{"members.user": userID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Club, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	clubs := []models.Club{}
	if err := cur.All(ctx, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

// Names maps club ids to names.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Name
	}
	return out, cur.Err()
}

// Update holds editable display fields. Members are never edited here.
type Update struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	Gradient    *string
	Category    *string
}

// Update edits display fields and returns the updated club.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Club, error) {
	set := bson.M{"updated_at": s.now()}
	setReq := func(field string, v *string, norm func(string) string) error {
		if v == nil {
			return nil
		}
		val := norm(*v)
		if val == "" {
			return apperr.Validation("%s cannot be empty", field)
		}
		set[field] = val
		return nil
	}
	for _, f := range []struct {
		field string
		v     *string
		norm  func(string) string
	}{
		{"name", upd.Name, normalize.Name},
		{"description", upd.Description, htmlsanitize.PlainText},
		{"icon", upd.Icon, normalize.Name},
		{"color", upd.Color, normalize.Name},
		{"gradient", upd.Gradient, normalize.Name},
		{"category", upd.Category, normalize.Category},
	} {
		if err := setReq(f.field, f.v, f.norm); err != nil {
			return nil, err
		}
	}
	if name, ok := set["name"].(string); ok {
		set["name_ci"] = text.Fold(name)
	}

	var c models.Club
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, notFound(err)
	}
	return &c, nil
}

// Count returns the number of clubs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
