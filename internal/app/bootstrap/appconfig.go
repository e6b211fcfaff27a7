// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for ClubHub.
//
// These values come from environment variables (CLUBHUB_*), configuration
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers the framework side: ports, TLS, log level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Admin sessions
	SessionKey  string        // Secret for signing session cookies and bearer tokens
	SessionName string        // Cookie name (default: clubhub-session)
	TokenTTL    time.Duration // Lifetime of an admin session or token

	// Team image uploads
	UploadsDir string // Directory uploaded team images are written to
	UploadsURL string // URL prefix those images are served from

	// Browser clients allowed to call the API
	CORSOrigins []string

	// First superadmin, created on startup if missing
	AdminEmail    string
	AdminPassword string

	// Google sign-in for club members
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // Public base URL used for the OAuth callback

	AuditLog             string        // Audit destination: all, db, log or off
	AchievementsSeedFile string        // Optional TOML catalog upserted at startup
	EventSweepInterval   time.Duration // How often event statuses are advanced
	LoginRateLimit       int           // Admin login attempts per minute per IP
}
