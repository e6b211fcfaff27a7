// internal/app/features/admin/handler.go
package admin

import (
	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	noticestore "github.com/dalemusser/clubhub/internal/app/store/notices"
	teamstore "github.com/dalemusser/clubhub/internal/app/store/team"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin console's dashboard stats, the paginated
// user/club/event tables and user moderation.
type Handler struct {
	Users        *userstore.Store
	Clubs        *clubstore.Store
	Events       *eventstore.Store
	Achievements *achievementstore.Store
	Notices      *noticestore.Store
	Team         *teamstore.Store
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Clubs:        clubstore.New(db),
		Events:       eventstore.New(db),
		Achievements: achievementstore.New(db),
		Notices:      noticestore.New(db),
		Team:         teamstore.New(db),
		AuditLog:     audit,
		Log:          logger,
	}
}
