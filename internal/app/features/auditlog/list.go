// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /admin/audit?category=&event_type=&start_date=&end_date=&page=&limit=.
// Dates are YYYY-MM-DD in UTC; end_date includes the whole day.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := normalize.QueryParam(query.Get(r, "category"))
	eventType := normalize.QueryParam(query.Get(r, "event_type"))
	startDate := normalize.QueryParam(query.Get(r, "start_date"))
	endDate := normalize.QueryParam(query.Get(r, "end_date"))

	if eventTypesForCategory(category) == nil {
		respond.Error(w, h.Log, apperr.Validation("unknown category %q", category))
		return
	}
	if eventType != "" && !knownEventType(category, eventType) {
		respond.Error(w, h.Log, apperr.Validation("unknown event type %q", eventType))
		return
	}

	pg := paging.Parse(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     int64(pg.Limit),
		Offset:    pg.Skip(),
	}
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("end_date must be YYYY-MM-DD"))
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	// Collect unique ids for name resolution.
	var userIDs, actorIDs []primitive.ObjectID
	seenUser := make(map[primitive.ObjectID]bool)
	seenActor := make(map[primitive.ObjectID]bool)
	for _, e := range events {
		if e.UserID != nil && !seenUser[*e.UserID] {
			seenUser[*e.UserID] = true
			userIDs = append(userIDs, *e.UserID)
		}
		if e.ActorID != nil && !seenActor[*e.ActorID] {
			seenActor[*e.ActorID] = true
			actorIDs = append(actorIDs, *e.ActorID)
		}
	}

	userNames, err := h.Users.Names(ctx, userIDs)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		userNames = nil
	}
	actorNames, err := h.Admins.Names(ctx, actorIDs)
	if err != nil {
		h.Log.Warn("failed to fetch admin names for audit log", zap.Error(err))
		actorNames = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = nameOr(actorNames, *e.ActorID)
		}
		if e.UserID != nil {
			item.UserName = nameOr(userNames, *e.UserID)
		}
		if e.TargetID != nil {
			item.TargetID = e.TargetID.Hex()
		}
		items = append(items, item)
	}

	respond.Page(w, items, len(items), pg.Page, pg.Limit, total)
}

// nameOr looks id up in names and falls back to its hex form.
func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.Hex()
}
