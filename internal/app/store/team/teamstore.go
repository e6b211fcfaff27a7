// internal/app/store/team/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = apperr.NotFound("team member not found")
	errRequired = apperr.Validation("name and role are required")
	errBadOrder = apperr.Validation("order cannot be negative")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("team_members"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NewMember is the input to Create. Image is the public URL of an
// already-stored upload.
type NewMember struct {
	Name     string
	Role     string
	Bio      string
	Image    string
	Order    int
	LinkedIn string
	GitHub   string
	Email    string
}

func (s *Store) Create(ctx context.Context, in NewMember) (models.TeamMember, error) {
	name := normalize.Name(in.Name)
	role := normalize.Name(in.Role)
	if name == "" || role == "" {
		return models.TeamMember{}, errRequired
	}
	if in.Order < 0 {
		return models.TeamMember{}, errBadOrder
	}
	now := s.now()
	m := models.TeamMember{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Role:      role,
		Bio:       htmlsanitize.PlainText(in.Bio),
		Image:     strings.TrimSpace(in.Image),
		Order:     in.Order,
		LinkedIn:  strings.TrimSpace(in.LinkedIn),
		GitHub:    strings.TrimSpace(in.GitHub),
		Email:     normalize.Email(in.Email),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.TeamMember{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.TeamMember, error) {
	var m models.TeamMember
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Update holds editable fields. Nil fields are left alone; setting
// IsActive true restores a soft-deleted member.
type Update struct {
	Name     *string
	Role     *string
	Bio      *string
	Image    *string
	Order    *int
	LinkedIn *string
	GitHub   *string
	Email    *string
	IsActive *bool
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.TeamMember, error) {
	set := bson.M{"updated_at": s.now()}
	for _, f := range []struct {
		key string
		val *string
	}{{"name", upd.Name}, {"role", upd.Role}} {
		if f.val == nil {
			continue
		}
		v := normalize.Name(*f.val)
		if v == "" {
			return nil, errRequired
		}
		set[f.key] = v
	}
	if upd.Bio != nil {
		set["bio"] = htmlsanitize.PlainText(*upd.Bio)
	}
	if upd.Image != nil {
		set["image"] = strings.TrimSpace(*upd.Image)
	}
	if upd.Order != nil {
		if *upd.Order < 0 {
			return nil, errBadOrder
		}
		set["order"] = *upd.Order
	}
	if upd.LinkedIn != nil {
		set["linkedin"] = strings.TrimSpace(*upd.LinkedIn)
	}
	if upd.GitHub != nil {
		set["github"] = strings.TrimSpace(*upd.GitHub)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}

	var m models.TeamMember
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Deactivate soft-deletes a member. Deactivating twice is not an error.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": s.now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active members by order, then name.
func (s *Store) ListActive(ctx context.Context) ([]models.TeamMember, error) {
	cur, err := s.c.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.TeamMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_active": true})
}
