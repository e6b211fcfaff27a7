// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost for admin password hashes.
	BcryptCost = 12
	// MinPasswordLength applies to new and changed passwords.
	MinPasswordLength = 8

	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// The three credential failures share one message so the response does not
// reveal which emails exist; callers use errors.Is to tell them apart for
// the audit log.
var (
	ErrUnknownEmail   = apperr.Auth("invalid email or password")
	ErrWrongPassword  = apperr.Auth("invalid email or password")
	ErrInactive       = apperr.Auth("admin account is deactivated")
	ErrNotFound       = apperr.NotFound("admin not found")
	ErrDuplicateEmail = apperr.Conflict("an admin with this email already exists")
	errShortPassword  = apperr.Validation("password must be at least %d characters", MinPasswordLength)
	errBadRole        = apperr.Validation("role must be admin or superadmin")
	errEmailRequired  = apperr.Validation("email is required")
)

type Store struct {
	c    *mongo.Collection
	cost int
	now  func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:    db.Collection("admins"),
		cost: BcryptCost,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithCost returns a copy of s hashing with cost. Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

// NewAdmin is the input to Create. Role defaults to admin.
type NewAdmin struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func (s *Store) Create(ctx context.Context, in NewAdmin) (models.Admin, error) {
	email := normalize.Email(in.Email)
	if email == "" {
		return models.Admin{}, errEmailRequired
	}
	if len(in.Password) < MinPasswordLength {
		return models.Admin{}, errShortPassword
	}
	role := normalize.Category(in.Role)
	if role == "" {
		role = RoleAdmin
	}
	if role != RoleAdmin && role != RoleSuperAdmin {
		return models.Admin{}, errBadRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.Admin{}, err
	}
	name := normalize.Name(in.Name)
	if name == "" {
		name = email
	}

	now := s.now()
	a := models.Admin{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateEmail
		}
		return models.Admin{}, err
	}
	return a, nil
}

// EnsureAdmin creates a superadmin for email unless an admin with that
// email already exists. Existing accounts are not modified.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) (created bool, err error) {
	_, err = s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err = s.Create(ctx, NewAdmin{Email: email, Password: password, Role: RoleSuperAdmin})
	if errors.Is(err, ErrDuplicateEmail) {
		// Another instance created it first.
		return false, nil
	}
	return err == nil, err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Authenticate checks credentials and records the login time.
// It returns ErrUnknownEmail, ErrWrongPassword or ErrInactive on failure.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.Admin, error) {
	a, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	if !a.IsActive {
		return nil, ErrInactive
	}

	now := s.now()
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": a.ID},
		bson.M{"$set": bson.M{"last_login_at": now}}); err != nil {
		return nil, err
	}
	a.LastLoginAt = &now
	return a, nil
}

// SetActive enables or disables an admin account.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": s.now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword replaces the password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	if len(password) < MinPasswordLength {
		return errShortPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": string(hash), "updated_at": s.now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all admins ordered by email.
func (s *Store) List(ctx context.Context) ([]models.Admin, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Admin{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names maps admin ids to display names, falling back to the email.
// Unknown ids are absent from the result.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var a models.Admin
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		if a.Name != "" {
			out[a.ID] = a.Name
		} else {
			out[a.ID] = a.Email
		}
	}
	return out, cur.Err()
}
