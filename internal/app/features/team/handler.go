// internal/app/features/team/handler.go
package team

import (
	"strings"

	teamstore "github.com/dalemusser/clubhub/internal/app/store/team"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the team roster. Images holds uploaded portraits, which
// are served under ImagesURL.
type Handler struct {
	Team      *teamstore.Store
	Images    storage.Store
	ImagesURL string
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, images storage.Store, imagesURL string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Team:      teamstore.New(db),
		Images:    images,
		ImagesURL: strings.TrimRight(imagesURL, "/"),
		AuditLog:  audit,
		Log:       logger,
	}
}
