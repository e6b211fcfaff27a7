// internal/app/features/users/handler.go
package users

import (
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves platform user profiles and the identity-provider sync
// used by the front end after sign-in.
type Handler struct {
	Users    *userstore.Store
	Clubs    *clubstore.Store
	Events   *eventstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Clubs:    clubstore.New(db),
		Events:   eventstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
