// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
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
	ErrNotFound          = apperr.NotFound("user not found")
	ErrDuplicateEmail    = apperr.Conflict("a user with this email already exists")
	ErrDuplicateProvider = apperr.Conflict("this sign-in account is already linked to another user")
	errEmailRequired     = apperr.Validation("a valid email is required")
	errProviderRequired  = apperr.Validation("providerId is required")
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	clubs   *mongo.Collection
	events  *mongo.Collection
	unlocks *mongo.Collection
	now     func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("users"),
		clubs:   db.Collection("clubs"),
		events:  db.Collection("events"),
		unlocks: db.Collection("user_achievements"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " ,")
}

// usernameFor defaults a username to the email's local part.
func usernameFor(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Exists reports whether id resolves to a user.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByProviderID looks up a user by external identity id.
func (s *Store) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"provider_id": providerID}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ResolveEmails maps emails to user ids, preserving input order. Emails with
// no matching user are returned in unknown; they are not an error.
func (s *Store) ResolveEmails(ctx context.Context, emails []string) (ids []primitive.ObjectID, unknown []string, err error) {
	if len(emails) == 0 {
		return []primitive.ObjectID{}, nil, nil
	}
	folded := make([]string, len(emails))
	for i, e := range emails {
		folded[i] = text.Fold(normalize.Email(e))
	}

	cur, err := s.c.Find(ctx,
		bson.M{"email_ci": bson.M{"$in": folded}},
		options.Find().SetProjection(bson.M{"_id": 1, "email_ci": 1}))
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	byEmail := make(map[string]primitive.ObjectID, len(emails))
	for cur.Next(ctx) {
		var row struct {
			ID      primitive.ObjectID `bson:"_id"`
			EmailCI string             `bson:"email_ci"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, nil, err
		}
		byEmail[row.EmailCI] = row.ID
	}
	if err := cur.Err(); err != nil {
		return nil, nil, err
	}

	ids = make([]primitive.ObjectID, 0, len(emails))
	seen := make(map[primitive.ObjectID]struct{}, len(emails))
	for i, f := range folded {
		id, ok := byEmail[f]
		if !ok {
			unknown = append(unknown, emails[i])
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, unknown, nil
}

func (s *Store) newUser(username, email string) models.User {
	now := s.now()
	if username = normalize.Name(username); username == "" {
		username = usernameFor(email)
	}
	return models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		EmailCI:      text.Fold(email),
		Clubs:        []primitive.ObjectID{},
		Achievements: []primitive.ObjectID{},
		Events:       []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Register creates a user directly, without an identity provider.
func (s *Store) Register(ctx context.Context, username, email string) (models.User, error) {
	email = normalize.Email(email)
	if !validEmail(email) {
		return models.User{}, errEmailRequired
	}
	u := s.newUser(username, email)
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProviderProfile is what an identity provider tells us about a user.
type ProviderProfile struct {
	ProviderID  string
	Email       string
	DisplayName string
	PhotoURL    string
}

// SyncProviderUser creates or refreshes the user behind an external
// identity on sign-in. Lookup is by provider id first, then by email so
// an account registered directly gets linked. created reports an insert.
func (s *Store) SyncProviderUser(ctx context.Context, p ProviderProfile) (u models.User, created bool, err error) {
	p.ProviderID = strings.TrimSpace(p.ProviderID)
	p.Email = normalize.Email(p.Email)
	if p.ProviderID == "" {
		return models.User{}, false, errProviderRequired
	}
	if !validEmail(p.Email) {
		return models.User{}, false, errEmailRequired
	}

	now := s.now()
	set := bson.M{
		"email":         p.Email,
		"email_ci":      text.Fold(p.Email),
		"last_login_at": now,
		"updated_at":    now,
	}
	if dn := normalize.Name(p.DisplayName); dn != "" {
		set["display_name"] = dn
	}
	if ph := strings.TrimSpace(p.PhotoURL); ph != "" {
		set["photo_url"] = ph
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	// 1) Known identity.
	err = s.c.FindOneAndUpdate(ctx, bson.M{"provider_id": p.ProviderID}, bson.M{"$set": set}, after).Decode(&u)
	switch {
	case err == nil:
		return u, false, nil
	case wafflemongo.IsDup(err):
		return models.User{}, false, ErrDuplicateEmail
	case !errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, false, err
	}

	// 2) Existing account with this email and no identity yet: link it.
	linkSet := bson.M{"provider_id": p.ProviderID}
	for k, v := range set {
		linkSet[k] = v
	}
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"email_ci": text.Fold(p.Email), "provider_id": bson.M{"$exists": false}},
		bson.M{"$set": linkSet}, after).Decode(&u)
	switch {
	case err == nil:
		return u, false, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, false, err
	}

	// 3) New user.
	u = s.newUser("", p.Email)
	pid := p.ProviderID
	u.ProviderID = &pid
	u.DisplayName = normalize.Name(p.DisplayName)
	u.PhotoURL = strings.TrimSpace(p.PhotoURL)
	u.LastLoginAt = &now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			// A concurrent sign-in for the same identity won; use its row.
			if existing, gerr := s.GetByProviderID(ctx, p.ProviderID); gerr == nil {
				return *existing, false, nil
			}
			return models.User{}, false, ErrDuplicateEmail
		}
		return models.User{}, false, err
	}
	return u, true, nil
}

// Update holds editable profile fields. Nil fields are left alone.
type Update struct {
	Username    *string
	DisplayName *string
	PhotoURL    *string
	Email       *string
}

// Update edits profile fields and returns the updated user.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.User, error) {
	set := bson.M{"updated_at": s.now()}
	if upd.Username != nil {
		name := normalize.Name(*upd.Username)
		if name == "" {
			return nil, apperr.Validation("username cannot be empty")
		}
		set["username"] = name
	}
	if upd.DisplayName != nil {
		set["display_name"] = normalize.Name(*upd.DisplayName)
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = strings.TrimSpace(*upd.PhotoURL)
	}
	if upd.Email != nil {
		email := normalize.Email(*upd.Email)
		if !validEmail(email) {
			return nil, errEmailRequired
		}
		set["email"] = email
		set["email_ci"] = text.Fold(email)
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, notFound(err)
	}
	return &u, nil
}

// Delete removes a user and every reference to them: club membership rows,
// event registrations and unlock rows. Points live on the user and go with it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, zap.L(), func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := s.clubs.UpdateMany(ctx,
			bson.M{"members.user": id},
			bson.M{"$pull": bson.M{"members": bson.M{"user": id}}}); err != nil {
			return err
		}
		if _, err := s.events.UpdateMany(ctx,
			bson.M{"participants": id},
			bson.M{"$pull": bson.M{"participants": id}}); err != nil {
			return err
		}
		_, err = s.unlocks.DeleteMany(ctx, bson.M{"user": id})
		return err
	})
}

// List returns one page of users, newest first, and the total count.
func (s *Store) List(ctx context.Context, pg paging.Params) ([]models.User, int64, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := pg.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Names maps user ids to a display label (display name, else username).
// Missing ids are absent from the map.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1, "display_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID          primitive.ObjectID `bson:"_id"`
			Username    string             `bson:"username"`
			DisplayName string             `bson:"display_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if row.DisplayName != "" {
			out[row.ID] = row.DisplayName
		} else {
			out[row.ID] = row.Username
		}
	}
	return out, cur.Err()
}

// Find loads the users with the given ids in unspecified order.
func (s *Store) Find(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
