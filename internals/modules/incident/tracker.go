package incident

import (
	"context"
	"time"

	"komonitor/internals/modules/alert"
	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/status"

	"github.com/rs/zerolog"
)

type Store interface {
	Latest(ctx context.Context, monitorID string) (*Invocation, error)
	Resolve(ctx context.Context, monitorID string, timestamp int64) (bool, error)
}

type Dispatcher interface {
	Dispatch(t alert.Trigger) bool
}

// Tracker moves a monitor between clear and ongoing incident states.
type Tracker struct {
	store      Store
	dispatcher Dispatcher
	timeout    time.Duration
	logger     *zerolog.Logger
}

func NewTracker(store Store, dispatcher Dispatcher, timeout time.Duration, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		store:      store,
		dispatcher: dispatcher,
		timeout:    timeout,
		logger:     logger,
	}
}

// Track reacts to a finalized status. Errors are logged, never returned.
//
// A down status always dispatches incident_start; duplicate suppression
// belongs to alert handling. An up status resolves the latest ongoing
// invocation and dispatches incident_end only if this call won the resolve.
func (t *Tracker) Track(ctx context.Context, m monitor.Monitor, rec status.Record) {
	if !m.HasAlerts() {
		return
	}

	switch rec.Status {
	case status.StatusDown:
		t.dispatch(m, alert.IncidentStart)
	case status.StatusUp:
		t.resolve(ctx, m)
	}
}

func (t *Tracker) resolve(ctx context.Context, m monitor.Monitor) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	inv, err := t.store.Latest(ctx, m.ID)
	if err != nil {
		t.logger.Error().Err(err).Str("monitor_id", m.ID).Msg("failed to load latest alert invocation")
		return
	}
	if inv == nil || !inv.Ongoing {
		return
	}

	won, err := t.store.Resolve(ctx, m.ID, inv.Timestamp)
	if err != nil {
		t.logger.Error().Err(err).Str("monitor_id", m.ID).Msg("failed to resolve alert invocation")
		return
	}
	if !won {
		t.logger.Info().
			Str("monitor_id", m.ID).
			Int64("invocation_ts", inv.Timestamp).
			Msg("alert invocation already resolved elsewhere")
		return
	}

	t.dispatch(m, alert.IncidentEnd)
}

func (t *Tracker) dispatch(m monitor.Monitor, kind alert.Type) {
	t.dispatcher.Dispatch(alert.NewTrigger(m.ID, m.OwnerID, kind))
}
