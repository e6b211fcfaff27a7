// internal/app/store/notices/noticestore.go
package noticestore

import (
	"context"
	"errors"
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
	ErrNotFound    = apperr.NotFound("notice not found")
	errRequired    = apperr.Validation("title and content are required")
	errBadPriority = apperr.Validation("priority must be low, normal or high")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("notices"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func priority(p string) (string, error) {
	p = normalize.Category(p)
	switch p {
	case "":
		return models.PriorityNormal, nil
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh:
		return p, nil
	}
	return "", errBadPriority
}

// NewNotice is the input to Create. Content may carry formatting HTML;
// anything unsafe is stripped. Notices are active unless Inactive is set.
type NewNotice struct {
	Title     string
	Content   string
	Priority  string
	Inactive  bool
	CreatedBy *primitive.ObjectID
}

func (s *Store) Create(ctx context.Context, in NewNotice) (models.Notice, error) {
	title := normalize.Name(in.Title)
	content := htmlsanitize.Sanitize(in.Content)
	if title == "" || content == "" {
		return models.Notice{}, errRequired
	}
	p, err := priority(in.Priority)
	if err != nil {
		return models.Notice{}, err
	}
	now := s.now()
	n := models.Notice{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   content,
		Priority:  p,
		Rank:      models.PriorityRank(p),
		IsActive:  !in.Inactive,
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notice{}, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notice, error) {
	var n models.Notice
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Update holds editable fields. Nil fields are left alone.
type Update struct {
	Title    *string
	Content  *string
	Priority *string
	IsActive *bool
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Notice, error) {
	set := bson.M{"updated_at": s.now()}
	if upd.Title != nil {
		t := normalize.Name(*upd.Title)
		if t == "" {
			return nil, errRequired
		}
		set["title"] = t
	}
	if upd.Content != nil {
		c := htmlsanitize.Sanitize(*upd.Content)
		if c == "" {
			return nil, errRequired
		}
		set["content"] = c
	}
	if upd.Priority != nil {
		p, err := priority(*upd.Priority)
		if err != nil {
			return nil, err
		}
		set["priority"] = p
		set["rank"] = models.PriorityRank(p)
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}

	var n models.Notice
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var listSort = bson.D{{Key: "rank", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// ListActive returns active notices, highest priority first, then newest.
func (s *Store) ListActive(ctx context.Context) ([]models.Notice, error) {
	return s.find(ctx, bson.M{"is_active": true})
}

// ListAll includes inactive notices, for the admin console.
func (s *Store) ListAll(ctx context.Context) ([]models.Notice, error) {
	return s.find(ctx, bson.M{})
}

func (s *Store) find(ctx context.Context, q bson.M) ([]models.Notice, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(listSort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Notice{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_active": true})
}
