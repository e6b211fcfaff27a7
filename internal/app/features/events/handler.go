// internal/app/features/events/handler.go
package events

import (
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves event listings, registration, and admin event editing.
type Handler struct {
	Events   *eventstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   eventstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
