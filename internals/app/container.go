package app

import (
	"context"
	"errors"

	"komonitor/config"
	"komonitor/internals/modules/alert"
	"komonitor/internals/modules/executor"
	"komonitor/internals/modules/incident"
	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/runner"
	"komonitor/internals/modules/status"
	"komonitor/internals/modules/webhook"
	"komonitor/pkg/httpclient"
	"komonitor/pkg/rabbitmq"
	"komonitor/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	AMQP        *amqp091.Connection
	Consumer    *rabbitmq.Consumer
	Logger      *zerolog.Logger

	validator     *validator.Validate
	publisher     *rabbitmq.Publisher
	alertSvc      *alert.Dispatcher
	notifier      *webhook.Notifier
	runner        *runner.Runner
	runnerHandler *runner.Handler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	redisClient, err := redisstore.New(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.NewConnection(&cfg.RabbitMQ, logger)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	if err := rabbitmq.SetupTopology(conn, &cfg.RabbitMQ); err != nil {
		_ = conn.Close()
		_ = redisClient.Close()
		return nil, err
	}

	publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.AlertRouting)
	if err != nil {
		_ = conn.Close()
		_ = redisClient.Close()
		return nil, err
	}
	consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQ.JobQueue, cfg.RabbitMQ.WorkerCount, logger)
	if err != nil {
		_ = publisher.Close()
		_ = conn.Close()
		_ = redisClient.Close()
		return nil, err
	}

	validator := monitor.NewValidator()

	// repositories
	statusRepo := status.NewRepository(db, logger)
	invocationRepo := incident.NewRepository(db, logger)
	secretRepo := webhook.NewRepository(db, logger)
	secrets := webhook.NewCachedSecrets(redisClient, secretRepo, cfg.Redis.SecretCacheTTL, logger)

	// async workers
	alertSvc := alert.NewDispatcher(&cfg.Alert, publisher, logger)
	notifier := webhook.NewNotifier(&cfg.Webhook, httpclient.NewHttpClient(cfg.Webhook.Timeout), secrets, cfg.Probe.UserAgent, logger)

	// pipeline
	prober := executor.NewProber(&cfg.Probe, httpclient.NewProbeTransport())
	recorder := status.NewRecorder(statusRepo, redisClient, cfg.Runner.StoreTimeout, logger)
	tracker := incident.NewTracker(invocationRepo, alertSvc, cfg.Runner.StoreTimeout, logger)

	var locker runner.Locker
	if cfg.Runner.LockTTL > 0 {
		locker = redisClient
	}
	jobRunner := runner.NewRunner(&cfg.Runner, prober, recorder, tracker, notifier, locker, logger)

	return &Container{
		DB:            db,
		RedisClient:   redisClient,
		AMQP:          conn,
		Consumer:      consumer,
		Logger:        logger,
		validator:     validator,
		publisher:     publisher,
		alertSvc:      alertSvc,
		notifier:      notifier,
		runner:        jobRunner,
		runnerHandler: runner.NewHandler(jobRunner, validator),
	}, nil
}

// Start starts the background workers.
func (c *Container) Start() {
	c.alertSvc.Start()
	c.notifier.Start()
}

// Shutdown drains in-flight batches and queued deliveries, then closes infra.
// The caller closes the DB pool.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	// 1. Stop taking batches, wait for running ones
	if err := c.Consumer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	// 2. Drain worker pools
	c.notifier.Close()
	c.alertSvc.Close()

	done := make(chan struct{})
	go func() {
		c.notifier.WorkerClosingWait()
		c.alertSvc.WorkerClosingWait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	// 3. Close broker and cache
	if err := c.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.AMQP.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.RedisClient.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
