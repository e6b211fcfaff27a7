// internal/app/store/achievements/achievementstore.go
package achievementstore

import (
	"context"
	"errors"
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
	ErrNotFound         = apperr.NotFound("achievement not found")
	ErrUserNotFound     = apperr.NotFound("user not found")
	ErrAlreadyUnlocked  = apperr.Conflict("achievement already unlocked")
	ErrDuplicateTitle   = apperr.Conflict("an achievement with this title already exists")
	errTitleRequired    = apperr.Validation("title is required")
	errNegativePoints   = apperr.Validation("points cannot be negative")
	errUnknownRarity    = apperr.Validation("rarity must be common, rare, epic or legendary")
	errEmptyUpdateField = apperr.Validation("title cannot be empty")
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	unlocks *mongo.Collection
	users   *mongo.Collection
	log     *zap.Logger
	now     func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("achievements"),
		unlocks: db.Collection("user_achievements"),
		users:   db.Collection("users"),
		log:     zap.L(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// NewAchievement is the input to Create. Rarity defaults to common.
type NewAchievement struct {
	Title       string
	Description string
	Icon        string
	Points      int
	Rarity      string
	Category    string
}

func (n *NewAchievement) normalize() error {
	n.Title = normalize.Name(n.Title)
	n.Description = htmlsanitize.PlainText(n.Description)
	n.Icon = normalize.Name(n.Icon)
	n.Category = normalize.Category(n.Category)
	n.Rarity = normalize.Category(n.Rarity)
	if n.Rarity == "" {
		n.Rarity = models.RarityCommon
	}
	switch {
	case n.Title == "":
		return errTitleRequired
	case n.Points < 0:
		return errNegativePoints
	case !models.IsValidRarity(n.Rarity):
		return errUnknownRarity
	}
	return nil
}

// Create adds a catalog entry.
func (s *Store) Create(ctx context.Context, in NewAchievement) (models.Achievement, error) {
	if err := in.normalize(); err != nil {
		return models.Achievement{}, err
	}
	now := s.now()
	a := models.Achievement{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		TitleCI:     text.Fold(in.Title),
		Description: in.Description,
		Icon:        in.Icon,
		Points:      in.Points,
		Rarity:      in.Rarity,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Achievement{}, ErrDuplicateTitle
		}
		return models.Achievement{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	var a models.Achievement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Filter narrows List.
type Filter struct {
	Category string
	Rarity   string
}

// List returns catalog entries ordered by category then points.
func (s *Store) List(ctx context.Context, f Filter, pg paging.Params) ([]models.Achievement, int64, error) {
	q := bson.M{}
	if c := normalize.Category(f.Category); c != "" {
		q["category"] = c
	}
	if r := normalize.Category(f.Rarity); r != "" {
		if !models.IsValidRarity(r) {
			return nil, 0, errUnknownRarity
		}
		q["rarity"] = r
	}
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := pg.Apply(options.Find().SetSort(bson.D{
		{Key: "category", Value: 1}, {Key: "points", Value: 1}, {Key: "title_ci", Value: 1},
	}))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []models.Achievement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update holds editable catalog fields. Nil fields are left alone.
type Update struct {
	Title       *string
	Description *string
	Icon        *string
	Points      *int
	Rarity      *string
	Category    *string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Achievement, error) {
	set := bson.M{"updated_at": s.now()}
	if upd.Title != nil {
		t := normalize.Name(*upd.Title)
		if t == "" {
			return nil, errEmptyUpdateField
		}
		set["title"] = t
		set["title_ci"] = text.Fold(t)
	}
	if upd.Description != nil {
		set["description"] = htmlsanitize.PlainText(*upd.Description)
	}
	if upd.Icon != nil {
		set["icon"] = normalize.Name(*upd.Icon)
	}
	if upd.Points != nil {
		if *upd.Points < 0 {
			return nil, errNegativePoints
		}
		set["points"] = *upd.Points
	}
	if upd.Rarity != nil {
		r := normalize.Category(*upd.Rarity)
		if !models.IsValidRarity(r) {
			return nil, errUnknownRarity
		}
		set["rarity"] = r
	}
	if upd.Category != nil {
		set["category"] = normalize.Category(*upd.Category)
	}

	var a models.Achievement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, notFound(err)
	}
	return &a, nil
}

// Delete removes the achievement, every unlock row for it, and the id from
// users' achievements. Points already awarded are kept.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = s.unlocks.DeleteMany(ctx, bson.M{"achievement": id})
		if err := txn.Tolerate(ctx, s.log, "achievement_delete", err); err != nil {
			return err
		}
		_, err = s.users.UpdateMany(ctx,
			bson.M{"achievements": id},
			bson.M{"$pull": bson.M{"achievements": id}})
		return txn.Tolerate(ctx, s.log, "achievement_delete", err)
	})
}

// Unlock records that userID earned achievementID, adds its points to the
// user's stats and the id to the user's achievements.
//
// The unique (user, achievement) index makes a second unlock a conflict
// even under concurrency. Without a transaction, a failure updating the
// user removes the inserted row again so the unlock can be retried.
func (s *Store) Unlock(ctx context.Context, achievementID, userID primitive.ObjectID) (models.UserAchievement, error) {
	a, err := s.GetByID(ctx, achievementID)
	if err != nil {
		return models.UserAchievement{}, err
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return models.UserAchievement{}, err
	}
	if n == 0 {
		return models.UserAchievement{}, ErrUserNotFound
	}

	row := models.UserAchievement{
		ID:          primitive.NewObjectID(),
		User:        userID,
		Achievement: achievementID,
		UnlockedAt:  s.now(),
	}
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.unlocks.InsertOne(ctx, row); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrAlreadyUnlocked
			}
			return err
		}
		res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
			"$inc":      bson.M{"stats.points": a.Points},
			"$addToSet": bson.M{"achievements": achievementID},
		})
		if err == nil && res.MatchedCount == 0 {
			err = ErrUserNotFound
		}
		if err != nil && !txn.InTransaction(ctx) {
			s.compensate(ctx, row.ID, err)
		}
		return err
	})
	if err != nil {
		return models.UserAchievement{}, err
	}
	return row, nil
}

func (s *Store) compensate(ctx context.Context, rowID primitive.ObjectID, cause error) {
	s.log.Warn("unlock: user update failed; removing unlock row",
		zap.String("unlock_id", rowID.Hex()),
		zap.Error(cause))
	if _, err := s.unlocks.DeleteOne(ctx, bson.M{"_id": rowID}); err != nil {
		s.log.Error("unlock: compensation failed; unlock row left without points",
			zap.String("unlock_id", rowID.Hex()),
			zap.Error(err))
	}
}

// Unlocked is an achievement with the time a user unlocked it.
type Unlocked struct {
	models.Achievement `bson:",inline"`
	UnlockedAt         time.Time `bson:"unlocked_at" json:"unlockedAt"`
}

// ListForUser returns the user's unlocked achievements, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]Unlocked, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "unlocked_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "achievements",
			"localField":   "achievement",
			"foreignField": "_id",
			"as":           "achievement",
		}}},
		{{Key: "$unwind", Value: "$achievement"}},
		{{Key: "$replaceRoot", Value: bson.M{
			"newRoot": bson.M{"$mergeObjects": bson.A{"$achievement", bson.M{"unlocked_at": "$unlocked_at"}}},
		}}},
	}
	cur, err := s.unlocks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Unlocked{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountUnlocks counts UserAchievement rows.
func (s *Store) CountUnlocks(ctx context.Context) (int64, error) {
	return s.unlocks.CountDocuments(ctx, bson.M{})
}
