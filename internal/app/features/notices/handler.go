// internal/app/features/notices/handler.go
package notices

import (
	noticestore "github.com/dalemusser/clubhub/internal/app/store/notices"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves site notices: the public banner list and admin upkeep.
type Handler struct {
	Notices  *noticestore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Notices:  noticestore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
