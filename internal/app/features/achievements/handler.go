// internal/app/features/achievements/handler.go
package achievements

import (
	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the achievement catalog and the unlock workflow.
type Handler struct {
	Achievements *achievementstore.Store
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Achievements: achievementstore.New(db),
		AuditLog:     audit,
		Log:          logger,
	}
}
