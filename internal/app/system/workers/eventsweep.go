// internal/app/system/workers/eventsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// StatusSweeper moves events through upcoming -> ongoing -> completed.
type StatusSweeper interface {
	SweepStatuses(ctx context.Context, now time.Time) (ongoing, completed int64, err error)
}

// StateCleaner removes expired OAuth states.
type StateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// EventSweep is a background worker that advances event statuses by
// wall-clock time and prunes expired sign-in state.
type EventSweep struct {
	events   StatusSweeper
	states   StateCleaner
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewEventSweep creates the worker. states may be nil.
//
// Parameters:
//   - events: the event store
//   - states: the oauth state store
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
func NewEventSweep(events StatusSweeper, states StateCleaner, logger *zap.Logger, interval time.Duration) *EventSweep {
	return &EventSweep{
		events:   events,
		states:   states,
		log:      logger,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately and then begins the background loop.
func (w *EventSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("event status sweep started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *EventSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("event status sweep stopped")
}

func (w *EventSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *EventSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ongoing, completed, err := w.events.SweepStatuses(ctx, w.now())
	if err != nil {
		w.log.Error("event status sweep failed", zap.Error(err))
	}
	metrics.EventStatusTransitions.WithLabelValues(models.EventOngoing).Add(float64(ongoing))
	metrics.EventStatusTransitions.WithLabelValues(models.EventCompleted).Add(float64(completed))
	if ongoing > 0 || completed > 0 {
		w.log.Info("event statuses advanced",
			zap.Int64("ongoing", ongoing),
			zap.Int64("completed", completed))
	}

	if w.states == nil {
		return
	}
	n, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to clean up oauth states", zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Debug("removed expired oauth states", zap.Int64("count", n))
	}
}
