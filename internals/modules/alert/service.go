package alert

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"komonitor/config"

	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Dispatcher hands triggers to alert handling without making the caller wait.
type Dispatcher struct {
	// lifecycle
	workerCount int
	workerWG    sync.WaitGroup
	mu          sync.RWMutex
	closed      bool

	// channels
	alertChan chan Trigger

	// deps
	publisher      Publisher
	publishTimeout time.Duration

	// misc
	logger *zerolog.Logger
}

func NewDispatcher(cfg *config.AlertConfig, publisher Publisher, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		workerCount:    cfg.WorkerCount,
		alertChan:      make(chan Trigger, cfg.QueueSize),
		publisher:      publisher,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger,
	}
}

// Start starts the dispatch workers
func (d *Dispatcher) Start() {
	d.workerWG.Add(d.workerCount)

	for range d.workerCount {
		go d.handleAlerts()
	}
}

// Dispatch enqueues t and returns immediately. It reports false when the
// trigger was dropped because the queue is full or closed.
func (d *Dispatcher) Dispatch(t Trigger) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn().Str("monitor_id", t.MonitorID).Msg("alert dispatcher closed, trigger dropped")
		return false
	}

	select {
	case d.alertChan <- t:
		return true
	default:
		d.logger.Warn().
			Str("monitor_id", t.MonitorID).
			Str("alert_type", string(t.AlertType)).
			Msg("alert queue full, trigger dropped")
		return false
	}
}

func (d *Dispatcher) handleAlerts() {
	defer d.workerWG.Done()

	for t := range d.alertChan {
		d.publish(t)
	}
}

func (d *Dispatcher) publish(t Trigger) {
	body, err := json.Marshal(t)
	if err != nil {
		d.logger.Error().Err(err).Str("monitor_id", t.MonitorID).Msg("failed to encode alert trigger")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, body); err != nil {
		d.logger.Error().
			Err(err).
			Str("monitor_id", t.MonitorID).
			Str("alert_type", string(t.AlertType)).
			Msg("failed to publish alert trigger")
		return
	}

	d.logger.Info().
		Str("monitor_id", t.MonitorID).
		Str("alert_type", string(t.AlertType)).
		Msg("alert trigger published")
}

// Close stops accepting triggers. Queued ones are still published.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.alertChan)
}

// WorkerClosingWait waits for alert workers to complete
func (d *Dispatcher) WorkerClosingWait() {
	d.workerWG.Wait()
}
