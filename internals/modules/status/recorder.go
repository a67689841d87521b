package status

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Store interface {
	Insert(ctx context.Context, rec Record) error
}

// Snapshotter keeps the latest status per monitor for fast reads.
type Snapshotter interface {
	StoreStatus(ctx context.Context, monitorID string, status string, statusCode int, latency float64, checkedAt time.Time) error
}

// Recorder persists status records. Failures are reported, never raised.
type Recorder struct {
	store    Store
	snapshot Snapshotter
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewRecorder(store Store, snapshot Snapshotter, timeout time.Duration, logger *zerolog.Logger) *Recorder {
	return &Recorder{
		store:    store,
		snapshot: snapshot,
		timeout:  timeout,
		logger:   logger,
	}
}

// Record appends rec and reports whether the durable write succeeded. The
// snapshot write is best effort and does not affect the result.
func (r *Recorder) Record(ctx context.Context, rec Record) bool {
	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Insert(writeCtx, rec); err != nil {
		r.logger.Error().
			Err(err).
			Str("monitor_id", rec.MonitorID).
			Int64("timestamp", rec.Timestamp).
			Msg("failed to store status record")
		return false
	}

	if r.snapshot != nil {
		checkedAt := time.UnixMilli(rec.Timestamp)
		if err := r.snapshot.StoreStatus(writeCtx, rec.MonitorID, string(rec.Status), rec.StatusCode(), rec.Latency, checkedAt); err != nil {
			r.logger.Warn().
				Err(err).
				Str("monitor_id", rec.MonitorID).
				Msg("failed to store status snapshot in redis")
		}
	}

	return true
}
