package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"komonitor/config"
	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SecretStore interface {
	GetSecret(ctx context.Context, ownerID string) (*Secret, error)
}

type delivery struct {
	url     string
	ownerID string
	record  status.Record
}

// Notifier delivers signed status webhooks from a pool of workers. Callers
// never wait on delivery.
type Notifier struct {
	// lifecycle
	workerCount int
	workerWG    sync.WaitGroup
	mu          sync.RWMutex
	closed      bool

	// channels
	queue chan delivery

	// deps
	client    *http.Client
	secrets   SecretStore
	timeout   time.Duration
	retries   int
	userAgent string

	// misc
	now    func() time.Time
	logger *zerolog.Logger
}

func NewNotifier(cfg *config.WebhookConfig, client *http.Client, secrets SecretStore, userAgent string, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		workerCount: cfg.WorkerCount,
		queue:       make(chan delivery, cfg.QueueSize),
		client:      client,
		secrets:     secrets,
		timeout:     cfg.Timeout,
		retries:     min(max(cfg.Retries, 0), 1),
		userAgent:   userAgent,
		now:         time.Now,
		logger:      logger,
	}
}

// Start starts the delivery workers
func (n *Notifier) Start() {
	n.workerWG.Add(n.workerCount)

	for range n.workerCount {
		go n.handleDeliveries()
	}
}

// Notify queues a webhook for rec. It reports false when nothing was queued.
func (n *Notifier) Notify(m monitor.Monitor, rec status.Record) bool {
	if !m.HasWebhook() {
		return false
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.Warn().Str("monitor_id", m.ID).Msg("webhook notifier closed, delivery dropped")
		return false
	}

	select {
	case n.queue <- delivery{url: m.WebhookURL, ownerID: m.OwnerID, record: rec}:
		return true
	default:
		n.logger.Warn().Str("monitor_id", m.ID).Msg("webhook queue full, delivery dropped")
		return false
	}
}

func (n *Notifier) handleDeliveries() {
	defer n.workerWG.Done()

	for d := range n.queue {
		n.deliver(d)
	}
}

func (n *Notifier) deliver(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().Interface("panic", r).Str("monitor_id", d.record.MonitorID).Msg("webhook delivery panicked")
		}
	}()

	lookupCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
	secret, err := n.secrets.GetSecret(lookupCtx, d.ownerID)
	cancel()
	if err != nil {
		n.logger.Error().Err(err).Str("owner_id", d.ownerID).Msg("failed to resolve webhook secret")
		return
	}
	if secret == nil {
		n.logger.Debug().Str("owner_id", d.ownerID).Msg("no webhook secret for owner, skipping")
		return
	}

	body, err := json.Marshal(Envelope{Type: HookTypeStatus, Data: Externalize(d.record)})
	if err != nil {
		n.logger.Error().Err(err).Str("monitor_id", d.record.MonitorID).Msg("failed to encode webhook body")
		return
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", n.userAgent)
	headers.Set(HeaderRequestID, uuid.NewString())
	headers.Set(HeaderHookType, HookTypeStatus)
	headers.Set(HeaderTimestamp, strconv.FormatInt(n.now().UnixMilli(), 10))
	headers.Set(HeaderSignature, Sign(secret.Value, body))

	for attempt := 0; attempt <= n.retries; attempt++ {
		code, err := n.post(d.url, headers, body)
		if err == nil {
			if code >= 300 {
				n.logger.Warn().
					Int("status_code", code).
					Str("monitor_id", d.record.MonitorID).
					Msg("webhook endpoint rejected delivery")
			}
			return
		}

		n.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("monitor_id", d.record.MonitorID).
			Msg("webhook delivery failed")
	}
}

func (n *Notifier) post(url string, headers http.Header, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header = headers.Clone()

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// Close stops accepting deliveries. Queued ones are still sent.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	close(n.queue)
}

// WorkerClosingWait waits for delivery workers to complete
func (n *Notifier) WorkerClosingWait() {
	n.workerWG.Wait()
}
