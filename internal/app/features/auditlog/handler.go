// internal/app/features/auditlog/handler.go
package auditlog

import (
	adminstore "github.com/dalemusser/clubhub/internal/app/store/admins"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Audit  *audit.Store
	Users  *userstore.Store
	Admins *adminstore.Store
	Log    *zap.Logger
}

// NewHandler constructs an audit log handler bound to db.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  audit.New(db),
		Users:  userstore.New(db),
		Admins: adminstore.New(db),
		Log:    logger,
	}
}
