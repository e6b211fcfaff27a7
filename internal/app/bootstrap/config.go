// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for ClubHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CLUBHUB_MONGO_URI, CLUBHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clubhub", Desc: "MongoDB database name"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session and token signing key (must be strong in production)"},
	{Name: "session_name", Default: "clubhub-session", Desc: "Session cookie name"},
	{Name: "token_ttl", Default: "24h", Desc: "Admin session and bearer token lifetime"},

	// Uploads
	{Name: "uploads_dir", Default: "./uploads/team", Desc: "Directory for uploaded team images"},
	{Name: "uploads_url", Default: "/uploads/team", Desc: "URL prefix for serving uploaded team images"},

	{Name: "cors_origins", Default: "http://localhost:3000", Desc: "Comma-separated origins allowed by CORS"},

	// Superadmin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the superadmin created on startup if missing"},
	{Name: "admin_password", Default: "", Desc: "Initial password for admin_email"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL for OAuth callbacks"},

	{Name: "audit_log", Default: "all", Desc: "Audit logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "achievements_seed_file", Default: "", Desc: "TOML achievement catalog upserted at startup"},
	{Name: "event_sweep_interval", Default: "1m", Desc: "How often event statuses are advanced (e.g., 30s, 1m)"},
	{Name: "login_rate_limit", Default: 10, Desc: "Admin login attempts allowed per minute per IP"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CLUBHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		TokenTTL:      appValues.Duration("token_ttl", 24*time.Hour),

		UploadsDir: appValues.String("uploads_dir"),
		UploadsURL: appValues.String("uploads_url"),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            strings.TrimRight(appValues.String("base_url"), "/"),

		AuditLog:             appValues.String("audit_log"),
		AchievementsSeedFile: appValues.String("achievements_seed_file"),
		EventSweepInterval:   appValues.Duration("event_sweep_interval", time.Minute),
		LoginRateLimit:       appValues.Int("login_rate_limit"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. In production the session
// key must be set and at least 32 bytes, and an admin email needs a password.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env == "prod", appCfg)
}

func validateApp(prod bool, appCfg AppConfig) error {
	if prod {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			return errors.New("session_key must be a private value of at least 32 bytes in production")
		}
	}
	if appCfg.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if appCfg.EventSweepInterval <= 0 {
		return errors.New("event_sweep_interval must be positive")
	}
	if appCfg.AdminEmail != "" && appCfg.AdminPassword == "" {
		return errors.New("admin_email requires admin_password")
	}
	if !strings.HasPrefix(appCfg.UploadsURL, "/") {
		return fmt.Errorf("uploads_url %q must be an absolute path", appCfg.UploadsURL)
	}
	return nil
}
