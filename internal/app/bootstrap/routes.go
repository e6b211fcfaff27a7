// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	achievementsfeature "github.com/dalemusser/clubhub/internal/app/features/achievements"
	adminfeature "github.com/dalemusser/clubhub/internal/app/features/admin"
	auditlogfeature "github.com/dalemusser/clubhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/clubhub/internal/app/features/authgoogle"
	clubsfeature "github.com/dalemusser/clubhub/internal/app/features/clubs"
	eventsfeature "github.com/dalemusser/clubhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/clubhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/clubhub/internal/app/features/logout"
	noticesfeature "github.com/dalemusser/clubhub/internal/app/features/notices"
	teamfeature "github.com/dalemusser/clubhub/internal/app/features/team"
	usersfeature "github.com/dalemusser/clubhub/internal/app/features/users"
	adminstore "github.com/dalemusser/clubhub/internal/app/store/admins"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for ClubHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. The JSON API lives under /api/v1; /health,
// /metrics and the uploaded team images sit beside it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.ClubHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, "", appCfg.TokenTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Re-read the admin on each request so deactivation takes effect at once.
	sessionMgr.SetAdminFetcher(adminstore.NewFetcher(db))

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Uniform(appCfg.AuditLog))

	images, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.UploadsDir,
		BaseURL:  appCfg.UploadsURL,
	})
	if err != nil {
		logger.Error("image storage init failed", zap.Error(err))
		return nil, err
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	r := chi.NewRouter()
	r.Use(corsMiddleware.Handler)
	r.Use(metrics.Middleware)

	// Loads the admin from the session cookie or bearer token, if present.
	r.Use(sessionMgr.LoadSessionAdmin)

	healthHandler := healthfeature.NewHandler(deps.ClubHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", promhttp.Handler())

	r.Handle(appCfg.UploadsURL+"/*", fileserver.Handler(appCfg.UploadsURL, appCfg.UploadsDir))

	clubsHandler := clubsfeature.NewHandler(db, auditLog, logger)
	eventsHandler := eventsfeature.NewHandler(db, auditLog, logger)
	achievementsHandler := achievementsfeature.NewHandler(db, auditLog, logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/health", healthfeature.Routes(healthHandler))

		api.Mount("/clubs", clubsfeature.Routes(clubsHandler, sessionMgr))
		api.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr))
		api.Mount("/achievements", achievementsfeature.Routes(achievementsHandler, sessionMgr))

		usersHandler := usersfeature.NewHandler(db, auditLog, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler))

		googleHandler := authgooglefeature.NewHandler(db, auditLog,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		api.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

		noticesHandler := noticesfeature.NewHandler(db, auditLog, logger)
		api.Mount("/notices", noticesfeature.Routes(noticesHandler, sessionMgr))

		teamHandler := teamfeature.NewHandler(db, images, appCfg.UploadsURL, auditLog, logger)
		api.Mount("/team", teamfeature.Routes(teamHandler, sessionMgr))

		// Admin console. Login and logout are mounted before the console
		// router so their paths win.
		limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit)
		loginHandler := loginfeature.NewHandler(db, sessionMgr, limiter, auditLog, logger)
		api.Mount("/admin/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		api.Mount("/admin/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(db, logger)
		api.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		adminHandler := adminfeature.NewHandler(db, auditLog, logger)
		api.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr, adminfeature.Editors{
			Clubs:        clubsHandler,
			Events:       eventsHandler,
			Achievements: achievementsHandler,
		}))
	})

	return r, nil
}
