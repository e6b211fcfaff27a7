// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"
	DestLog = "log"
	DestOff = "off"
)

// Config selects a destination per event category.
type Config struct {
	Auth     string
	Admin    string
	Workflow string
}

// Uniform applies one destination to every category.
func Uniform(dest string) Config {
	dest = strings.ToLower(strings.TrimSpace(dest))
	switch dest {
	case DestAll, DestDB, DestLog, DestOff:
	default:
		dest = DestAll
	}
	return Config{Auth: dest, Admin: dest, Workflow: dest}
}

// Logger writes audit events to audit.Store and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's destination.
// A nil Logger is a no-op so handlers can be built without auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryWorkflow:
		setting = l.config.Workflow
	default:
		setting = DestAll
	}
	if setting == "" {
		setting = DestAll
	}

	if setting == DestOff {
		return
	}
	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if setting == DestAll || setting == DestDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, event audit.Event) audit.Event {
	if r != nil {
		event.IP = ratelimit.ClientIP(r)
		event.UserAgent = r.UserAgent()
	}
	return event
}

// --- Authentication events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, adminID primitive.ObjectID, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   &adminID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

// LoginFailed logs a refused admin login. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, email, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	}))
}

// Logout logs an admin logout. An unparsable id is dropped from the record.
func (l *Logger) Logout(ctx context.Context, r *http.Request, adminIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Success:   true,
	}
	if id, err := primitive.ObjectIDFromHex(adminIDStr); err == nil {
		event.ActorID = &id
	}
	l.Log(ctx, fromRequest(r, event))
}

// ProviderSignIn logs a platform user signing in through Google.
func (l *Logger) ProviderSignIn(ctx context.Context, r *http.Request, userID primitive.ObjectID, created bool) {
	detail := "false"
	if created {
		detail = "true"
	}
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventProviderSignIn,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"created": detail},
	}))
}

// --- Admin actions ---

// AdminAction logs a privileged change made by adminID to targetID.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, adminID primitive.ObjectID, eventType string, targetID primitive.ObjectID, details map[string]string) {
	event := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &adminID,
		TargetID:  &targetID,
		Success:   true,
		Details:   details,
	}
	if eventType == audit.EventUserUpdated || eventType == audit.EventUserDeleted {
		event.UserID = &targetID
	}
	l.Log(ctx, fromRequest(r, event))
}

// AdminRequest is AdminAction with the actor taken from the signed-in
// admin on r. Requests without one are not logged.
func (l *Logger) AdminRequest(ctx context.Context, r *http.Request, eventType string, targetID primitive.ObjectID, details map[string]string) {
	a, ok := auth.CurrentAdmin(r)
	if !ok {
		return
	}
	l.AdminAction(ctx, r, a.ObjectID(), eventType, targetID, details)
}

// --- Workflow ---

// Workflow logs a membership, registration or unlock by userID on targetID.
func (l *Logger) Workflow(ctx context.Context, r *http.Request, eventType string, userID, targetID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryWorkflow,
		EventType: eventType,
		UserID:    &userID,
		TargetID:  &targetID,
		Success:   true,
	}))
}
