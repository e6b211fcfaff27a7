// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Workflow counters, labelled by outcome ("ok", "conflict", "not_found", ...).
	ClubJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_club_joins_total", Help: "Club join attempts by outcome"},
		[]string{"outcome"},
	)
	ClubLeaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_club_leaves_total", Help: "Club leave attempts by outcome"},
		[]string{"outcome"},
	)
	EventRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_event_registrations_total", Help: "Event registration attempts by outcome"},
		[]string{"outcome"},
	)
	AchievementUnlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_achievement_unlocks_total", Help: "Achievement unlock attempts by outcome"},
		[]string{"outcome"},
	)
	// PartialWrites counts dual-writes where the second document could not
	// be updated outside a transaction.
	PartialWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_partial_writes_total", Help: "Non-transactional dual-writes that failed after the first write"},
		[]string{"operation"},
	)
	EventStatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_event_status_transitions_total", Help: "Events moved by the status sweep"},
		[]string{"to"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubhub_http_requests_total", Help: "HTTP requests by route and status"},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "clubhub_http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

// Register adds all collectors to the default registry. Safe to call once.
func Register() {
	prometheus.MustRegister(
		ClubJoins, ClubLeaves, EventRegistrations, AchievementUnlocks,
		PartialWrites, EventStatusTransitions,
		HTTPRequests, HTTPDuration,
	)
}

// Outcome returns "ok" for nil and the error kind name otherwise.
// kindName is passed in to keep this package free of app imports.
func Outcome(err error, kindName func(error) string) string {
	if err == nil {
		return "ok"
	}
	return kindName(err)
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so /clubs/{id} is one series rather than one per id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
