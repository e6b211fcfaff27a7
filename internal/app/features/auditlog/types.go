// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
)

// listItem is one audit event with actor and user names resolved.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	ActorName     string            `json:"actorName,omitempty"`
	UserName      string            `json:"userName,omitempty"`
	TargetID      string            `json:"targetId,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUnknownEmail,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventProviderSignIn,
	}

	adminEvents := []string{
		audit.EventUserUpdated,
		audit.EventUserDeleted,
		audit.EventClubUpdated,
		audit.EventClubDeleted,
		audit.EventEventCreated,
		audit.EventEventUpdated,
		audit.EventEventDeleted,
		audit.EventAchievementCreated,
		audit.EventAchievementUpdated,
		audit.EventAchievementDeleted,
		audit.EventNoticeCreated,
		audit.EventNoticeUpdated,
		audit.EventNoticeDeleted,
		audit.EventTeamMemberCreated,
		audit.EventTeamMemberUpdated,
		audit.EventTeamMemberDeleted,
	}

	workflowEvents := []string{
		audit.EventClubCreated,
		audit.EventClubJoined,
		audit.EventClubLeft,
		audit.EventEventRegistered,
		audit.EventEventUnregistered,
		audit.EventAchievementUnlocked,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryWorkflow:
		return workflowEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(workflowEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, workflowEvents...)
		return all
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, t := range eventTypesForCategory(category) {
		if t == eventType {
			return true
		}
	}
	return false
}
