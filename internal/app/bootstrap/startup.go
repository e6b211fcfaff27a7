// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	achievementstore "github.com/dalemusser/clubhub/internal/app/store/achievements"
	adminstore "github.com/dalemusser/clubhub/internal/app/store/admins"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	workersMu sync.Mutex
	sweep     *workers.EventSweep
)

// Startup runs one-time initialization after the schema is in place:
// metrics registration, the achievement catalog, the first superadmin and
// the event status sweep.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	metrics.Register()

	db := deps.ClubHubMongoDatabase
	if err := seedAchievements(ctx, db, appCfg.AchievementsSeedFile, logger); err != nil {
		return err
	}
	if err := ensureSuperAdmin(ctx, db, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
		return err
	}

	workersMu.Lock()
	defer workersMu.Unlock()
	sweep = workers.NewEventSweep(eventstore.New(db), oauthstate.New(db), logger, appCfg.EventSweepInterval)
	sweep.Start()
	return nil
}

func stopWorkers() {
	workersMu.Lock()
	defer workersMu.Unlock()
	if sweep != nil {
		sweep.Stop()
		sweep = nil
	}
}

// seedAchievements upserts the TOML catalog at path. A blank path skips it.
func seedAchievements(ctx context.Context, db *mongo.Database, path string, logger *zap.Logger) error {
	if path == "" {
		return nil
	}
	catalog, err := achievementstore.LoadCatalogFile(path)
	if err != nil {
		return err
	}

	seedCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "achievement seed")
	defer cancel()

	inserted, err := achievementstore.New(db).Seed(seedCtx, catalog)
	if err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	logger.Info("achievement catalog seeded",
		zap.String("file", path),
		zap.Int("entries", len(catalog.Achievements)),
		zap.Int("inserted", inserted))
	return nil
}

// ensureSuperAdmin creates the configured superadmin if no admin has that
// email. A blank email skips it.
func ensureSuperAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	opCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), logger, "ensure superadmin")
	defer cancel()

	created, err := adminstore.New(db).EnsureAdmin(opCtx, email, password)
	if err != nil {
		return fmt.Errorf("ensure superadmin %s: %w", email, err)
	}
	if created {
		logger.Info("created superadmin", zap.String("email", email))
	}
	return nil
}
