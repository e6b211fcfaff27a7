// internal/app/system/params/params.go

// Package params reads ids from URL paths and JSON bodies and turns bad
// input into validation errors.
package params

import (
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses a hex ObjectID. field names the input in the error.
func ObjectID(s, field string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.NilObjectID, apperr.Validation("%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s", field)
	}
	return id, nil
}

// OptionalObjectID is ObjectID where an empty string means absent.
func OptionalObjectID(s, field string) (primitive.ObjectID, error) {
	if strings.TrimSpace(s) == "" {
		return primitive.NilObjectID, nil
	}
	return ObjectID(s, field)
}

// PathID parses the chi URL parameter key.
func PathID(r *http.Request, key string) (primitive.ObjectID, error) {
	return ObjectID(chi.URLParam(r, key), key)
}

// UserIDBody decodes {"userId": "..."} as the membership routes send it.
func UserIDBody(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, error) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := respond.Decode(w, r, &body); err != nil {
		return primitive.NilObjectID, err
	}
	return ObjectID(body.UserID, "userId")
}
