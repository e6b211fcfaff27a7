package adminstore

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.AdminFetcher so a deactivated or deleted admin
// loses access on the next request rather than when the token expires.
type Fetcher struct {
	c *mongo.Collection
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{c: db.Collection("admins")}
}

// FetchAdmin returns the current name, email and role for adminID, or nil
// when the admin is missing, deactivated or cannot be read.
func (f *Fetcher) FetchAdmin(ctx context.Context, adminID string) *auth.SessionAdmin {
	oid, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var a models.Admin
	proj := options.FindOne().SetProjection(bson.M{
		"_id": 1, "name": 1, "email": 1, "role": 1, "is_active": 1,
	})
	if err := f.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&a); err != nil {
		return nil
	}
	if !a.IsActive {
		return nil
	}
	return &auth.SessionAdmin{
		ID:    a.ID.Hex(),
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	}
}
