package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data. Documents are
// inserted directly so store tests do not depend on the code under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose username is the email's local part.
func (f *Fixtures) CreateUser(ctx context.Context, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))
	username := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		username = email[:at]
	}
	u := models.User{
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
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateClub inserts a club with creator as its only (admin) member and
// adds the club to the creator's clubs.
func (f *Fixtures) CreateClub(ctx context.Context, name string, creator primitive.ObjectID) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "A test club",
		Icon:        "🚀",
		Color:       "#336699",
		Gradient:    "from-blue-500 to-purple-500",
		Category:    "technology",
		CreatedBy:   creator,
		Members:     []models.ClubMember{{User: creator, Role: models.ClubRoleAdmin, JoinedDate: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	f.addToUser(ctx, creator, "clubs", c.ID)
	return c
}

// CreateEvent inserts an upcoming event for club starting at start.
// maxParticipants <= 0 means unlimited.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, club, creator primitive.ObjectID, start time.Time, maxParticipants int) models.Event {
	f.t.Helper()

	start = start.UTC().Truncate(time.Minute)
	now := time.Now().UTC()
	e := models.Event{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  "A test event",
		Club:         club,
		Date:         time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		Time:         start.Format("15:04"),
		Duration:     60,
		StartsAt:     start,
		Location:     models.LocationOffline,
		Venue:        "Room 101",
		Status:       models.EventUpcoming,
		Participants: []primitive.ObjectID{},
		CreatedBy:    creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if maxParticipants > 0 {
		e.MaxParticipants = &maxParticipants
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateAchievement inserts a catalog achievement worth points.
func (f *Fixtures) CreateAchievement(ctx context.Context, title string, points int) models.Achievement {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Achievement{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: "A test achievement",
		Icon:        "🏆",
		Points:      points,
		Rarity:      models.RarityCommon,
		Category:    "participation",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("achievements").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test achievement: %v", err)
	}
	return a
}

// CreateAdmin inserts an active admin with a bcrypt hash of password.
func (f *Fixtures) CreateAdmin(ctx context.Context, email, password string) models.Admin {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	a := models.Admin{
		ID:           primitive.NewObjectID(),
		Email:        strings.ToLower(email),
		EmailCI:      text.Fold(email),
		Name:         "Test Admin",
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("admins").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}
	return a
}

// CreateNotice inserts an active notice.
func (f *Fixtures) CreateNotice(ctx context.Context, title, priority string) models.Notice {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.Notice{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   "<p>" + title + "</p>",
		Priority:  priority,
		Rank:      models.PriorityRank(priority),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("notices").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notice: %v", err)
	}
	return n
}

// CreateTeamMember inserts an active team member at order.
func (f *Fixtures) CreateTeamMember(ctx context.Context, name string, order int) models.TeamMember {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.TeamMember{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Role:      "Organizer",
		Order:     order,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("team_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test team member: %v", err)
	}
	return m
}

// GetUser reloads a user, failing the test if it is missing.
func (f *Fixtures) GetUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to load user %s: %v", id.Hex(), err)
	}
	return u
}

func (f *Fixtures) addToUser(ctx context.Context, userID primitive.ObjectID, field string, id primitive.ObjectID) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{field: id}})
	if err != nil {
		f.t.Fatalf("failed to update user %s: %v", field, err)
	}
}
