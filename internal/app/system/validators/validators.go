// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the app's collections if missing and attaches
// JSON-Schema validators. Servers without collMod support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("clubs", clubsSchema())
	ensure("events", eventsSchema())
	ensure("achievements", achievementsSchema())
	ensure("user_achievements", userAchievementsSchema())
	ensure("admins", adminsSchema())
	ensure("notices", noticesSchema())
	ensure("team_members", teamMembersSchema())

	ensure("audit_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureCollection makes sure name exists. created is true only when this
// call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	names, listErr := db.ListCollectionNames(ctx, bson.M{"name": name})
	if listErr == nil && len(names) > 0 {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if hasCode(err, []int32{48}, "already exists", "namespace exists") {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

// isUnsupported matches "no such command" (59) and "not implemented" (115).
func isUnsupported(err error) bool {
	return hasCode(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

func hasCode(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

// idList allows null because a nil slice encodes as null.
var idList = bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "objectId"}}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "email", "email_ci"},
			"properties": bson.M{
				"username":     nonBlank,
				"email":        nonBlank,
				"email_ci":     nonBlank,
				"provider_id":  bson.M{"bsonType": bson.A{"string", "null"}},
				"clubs":        idList,
				"achievements": idList,
				"events":       idList,
				"stats": bson.M{
					"bsonType":   "object",
					"properties": bson.M{"points": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}},
				},
			},
		},
	}
}

func clubsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "created_by"},
			"properties": bson.M{
				"name":       nonBlank,
				"name_ci":    nonBlank,
				"created_by": bson.M{"bsonType": "objectId"},
				"members": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"user", "role"},
						"properties": bson.M{
							"user": bson.M{"bsonType": "objectId"},
							"role": bson.M{"enum": bson.A{models.ClubRoleAdmin, models.ClubRoleMember}},
						},
					},
				},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "club", "starts_at", "status", "location"},
			"properties": bson.M{
				"title":            nonBlank,
				"club":             bson.M{"bsonType": "objectId"},
				"starts_at":        bson.M{"bsonType": "date"},
				"duration":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"location":         bson.M{"enum": bson.A{models.LocationOnline, models.LocationOffline, models.LocationHybrid}},
				"status":           bson.M{"enum": bson.A{models.EventUpcoming, models.EventOngoing, models.EventCompleted, models.EventCancelled}},
				"max_participants": bson.M{"bsonType": bson.A{"int", "long", "null"}, "minimum": 1},
				"participants":     idList,
			},
		},
	}
}

func achievementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "points", "rarity"},
			"properties": bson.M{
				"title":    nonBlank,
				"title_ci": nonBlank,
				"points":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"rarity":   bson.M{"enum": bson.A{models.RarityCommon, models.RarityRare, models.RarityEpic, models.RarityLegendary}},
			},
		},
	}
}

func userAchievementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user", "achievement", "unlocked_at"},
			"properties": bson.M{
				"user":        bson.M{"bsonType": "objectId"},
				"achievement": bson.M{"bsonType": "objectId"},
				"unlocked_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "password_hash", "role", "is_active"},
			"properties": bson.M{
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{"admin", "superadmin"}},
				"is_active":     bson.M{"bsonType": "bool"},
			},
		},
	}
}

func noticesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "priority", "is_active"},
			"properties": bson.M{
				"title":     nonBlank,
				"priority":  bson.M{"enum": bson.A{models.PriorityHigh, models.PriorityNormal, models.PriorityLow}},
				"is_active": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func teamMembersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "role", "is_active"},
			"properties": bson.M{
				"name":      nonBlank,
				"role":      nonBlank,
				"order":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"is_active": bson.M{"bsonType": "bool"},
			},
		},
	}
}
