package events

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleRegister handles POST /events/{id}/register with {"userId": "..."}.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	eventID, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := params.UserIDBody(w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event register")
	defer cancel()

	ev, err := h.Events.Register(ctx, eventID, userID)
	metrics.EventRegistrations.WithLabelValues(metrics.Outcome(err, apperr.KindName)).Inc()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventEventRegistered, userID, eventID)
	respond.OKMessage(w, ev, "Registered for event")
}

// HandleUnregister handles POST /events/{id}/unregister.
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	eventID, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := params.UserIDBody(w, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event unregister")
	defer cancel()

	ev, err := h.Events.Unregister(ctx, eventID, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.Workflow(ctx, r, audit.EventEventUnregistered, userID, eventID)
	respond.OKMessage(w, ev, "Unregistered from event")
}

// createRequest mirrors the admin console's event form. participants is
// either "a@x.com, b@x.com" or ["a@x.com", "b@x.com"].
type createRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Club            string `json:"club"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Duration        int    `json:"duration"`
	Location        string `json:"location"`
	Venue           string `json:"venue"`
	MeetingLink     string `json:"meetingLink"`
	Status          string `json:"status"`
	MaxParticipants *int   `json:"maxParticipants"`
	Participants    any    `json:"participants"`
	CreatedBy       string `json:"createdBy"`
}

// HandleCreate handles POST /events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	club, err := params.ObjectID(req.Club, "club")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	createdBy, err := params.OptionalObjectID(req.CreatedBy, "createdBy")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event create")
	defer cancel()

	res, err := h.Events.Create(ctx, eventstore.NewEvent{
		Title:           req.Title,
		Description:     req.Description,
		Club:            club,
		Date:            req.Date,
		Time:            req.Time,
		Duration:        req.Duration,
		Location:        req.Location,
		Venue:           req.Venue,
		MeetingLink:     req.MeetingLink,
		Status:          req.Status,
		MaxParticipants: req.MaxParticipants,
		Participants:    req.Participants,
		CreatedBy:       createdBy,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if len(res.Unknown) > 0 {
		h.Log.Info("event create: dropped unknown participants",
			zap.String("event_id", res.Event.ID.Hex()),
			zap.Strings("emails", res.Unknown))
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventEventCreated, res.Event.ID, nil)
	msg := res.Message()
	if msg == "" {
		msg = "Event created"
	}
	respond.Created(w, res.Event, msg)
}

// updateRequest: maxParticipants null clears the cap, absent leaves it.
type updateRequest struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Date            *string     `json:"date"`
	Time            *string     `json:"time"`
	Duration        *int        `json:"duration"`
	Location        *string     `json:"location"`
	Venue           *string     `json:"venue"`
	MeetingLink     *string     `json:"meetingLink"`
	Status          *string     `json:"status"`
	MaxParticipants optionalInt `json:"maxParticipants"`
	Participants    any         `json:"participants"`
}

// HandleUpdate handles PUT /events/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event update")
	defer cancel()

	upd := eventstore.Update{
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date,
		Time:         req.Time,
		Duration:     req.Duration,
		Location:     req.Location,
		Venue:        req.Venue,
		MeetingLink:  req.MeetingLink,
		Status:       req.Status,
		Participants: req.Participants,
	}
	if req.MaxParticipants.Set {
		if req.MaxParticipants.Value == nil {
			upd.ClearMax = true
		} else {
			upd.MaxParticipants = req.MaxParticipants.Value
		}
	}

	res, err := h.Events.Update(ctx, id, upd)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventEventUpdated, id, nil)
	msg := res.Message()
	if msg == "" {
		msg = "Event updated"
	}
	respond.OKMessage(w, res.Event, msg)
}

// HandleDelete handles DELETE /events/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event delete")
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.AdminRequest(ctx, r, audit.EventEventDeleted, id, nil)
	respond.OKMessage(w, nil, "Event deleted")
}
