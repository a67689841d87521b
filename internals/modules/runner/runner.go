package runner

import (
	"context"
	"time"

	"komonitor/config"
	"komonitor/internals/modules/condition"
	"komonitor/internals/modules/executor"
	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/status"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Prober interface {
	Probe(ctx context.Context, req executor.Request) executor.Result
}

type Recorder interface {
	Record(ctx context.Context, rec status.Record) bool
}

type Tracker interface {
	Track(ctx context.Context, m monitor.Monitor, rec status.Record)
}

type Notifier interface {
	Notify(m monitor.Monitor, rec status.Record) bool
}

// Locker guards against two jobs for the same monitor running at once.
type Locker interface {
	AcquireJobLock(ctx context.Context, monitorID string, ttl time.Duration) (string, bool, error)
	ReleaseJobLock(ctx context.Context, monitorID string, token string) error
}

type BatchResult struct {
	Jobs     int           `json:"jobs"`
	Rejected int           `json:"rejected"`
	Duration time.Duration `json:"duration"`
}

type Runner struct {
	prober   Prober
	recorder Recorder
	tracker  Tracker
	notifier Notifier
	locker   Locker

	maxConcurrency int
	lockTTL        time.Duration

	now    func() time.Time
	logger *zerolog.Logger
}

// NewRunner builds a Runner. locker may be nil, in which case jobs for the
// same monitor are not serialized.
func NewRunner(cfg *config.RunnerConfig, prober Prober, recorder Recorder, tracker Tracker, notifier Notifier, locker Locker, logger *zerolog.Logger) *Runner {
	return &Runner{
		prober:         prober,
		recorder:       recorder,
		tracker:        tracker,
		notifier:       notifier,
		locker:         locker,
		maxConcurrency: cfg.MaxConcurrency,
		lockTTL:        cfg.LockTTL,
		now:            time.Now,
		logger:         logger,
	}
}

// RunBatch runs every job concurrently and returns once all of them have
// settled. A failing or panicking job never affects its siblings.
func (r *Runner) RunBatch(ctx context.Context, monitors []monitor.Monitor) BatchResult {
	start := time.Now()

	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}

	for _, m := range monitors {
		g.Go(func() error {
			r.runJob(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Jobs: len(monitors), Duration: time.Since(start)}
	r.logger.Info().
		Int("jobs", res.Jobs).
		Dur("duration", res.Duration).
		Msg("batch finished")
	return res
}

func (r *Runner) runJob(ctx context.Context, m monitor.Monitor) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("monitor_id", m.ID).
				Msg("job panicked")
		}
	}()

	if r.locker != nil {
		token, ok, err := r.locker.AcquireJobLock(ctx, m.ID, r.lockTTL)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Str("monitor_id", m.ID).Msg("job lock unavailable, running unguarded")
		case !ok:
			r.logger.Info().Str("monitor_id", m.ID).Msg("job already running for monitor, skipping")
			return
		default:
			defer r.releaseLock(m.ID, token)
		}
	}

	rec := r.execute(ctx, m)

	if !r.recorder.Record(ctx, rec) {
		r.logger.Warn().Str("monitor_id", m.ID).Str("status", string(rec.Status)).Msg("status not persisted")
	}

	if rec.Status == status.StatusPaused {
		return
	}

	r.notifier.Notify(m, rec)
	r.tracker.Track(ctx, m, rec)
}

// execute probes until the monitor is up or its retries are spent. The
// record carries the last attempt's outcome and the mean latency over the
// attempts that got a response.
func (r *Runner) execute(ctx context.Context, m monitor.Monitor) status.Record {
	if m.Paused {
		return status.NewRecord(m, r.now(), status.StatusPaused, status.NoLatency, 0, nil, nil)
	}

	checks := condition.Compile(m.Checks)
	req := requestFor(m)

	var (
		result    executor.Result
		results   []condition.Result
		isUp      bool
		attempts  int
		latencies []float64
	)
	for attempts = 1; ; attempts++ {
		result = r.prober.Probe(ctx, req)
		if l, ok := result.Response.Latency(); ok {
			latencies = append(latencies, l)
		}

		results, isUp = condition.Evaluate(checks, &result.Response)
		if isUp || attempts > m.Retries || ctx.Err() != nil {
			break
		}

		r.logger.Debug().
			Str("monitor_id", m.ID).
			Int("attempt", attempts).
			Int("status_code", result.Response.StatusCode).
			Msg("monitor down, retrying")
	}

	st := status.StatusDown
	if isUp {
		st = status.StatusUp
	}
	return status.NewRecord(m, r.now(), st, meanLatency(latencies), attempts, &result, results)
}

func (r *Runner) releaseLock(monitorID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.locker.ReleaseJobLock(ctx, monitorID, token); err != nil {
		r.logger.Warn().Err(err).Str("monitor_id", monitorID).Msg("failed to release job lock")
	}
}

func requestFor(m monitor.Monitor) executor.Request {
	return executor.Request{
		URL:             m.URL,
		Method:          m.Method,
		Headers:         m.Headers,
		Body:            m.Body,
		FollowRedirects: m.FollowRedirects,
	}
}

func meanLatency(latencies []float64) float64 {
	if len(latencies) == 0 {
		return status.NoLatency
	}
	var sum float64
	for _, l := range latencies {
		sum += l
	}
	return sum / float64(len(latencies))
}
