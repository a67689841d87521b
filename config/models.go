package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns" validate:"gte=1"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	MinIdleConns    int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	SecretCacheTTL  time.Duration `mapstructure:"secret_cache_ttl"`
}

type RabbitMQConfig struct {
	BrokerLink    string `mapstructure:"broker_link" validate:"required"`
	ExchangeName  string `mapstructure:"exchange_name" validate:"required"`
	ExchangeType  string `mapstructure:"exchange_type" validate:"oneof=direct topic fanout"`
	JobQueue      string `mapstructure:"job_queue" validate:"required"`
	JobRoutingKey string `mapstructure:"job_routing_key" validate:"required"`
	AlertRouting  string `mapstructure:"alert_routing_key" validate:"required"`
	WorkerCount   int    `mapstructure:"worker_count" validate:"gte=1"`
}

// ProbeConfig tunes the outbound uptime probe.
type ProbeConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent        string        `mapstructure:"user_agent" validate:"required"`
	MaxRedirects     int           `mapstructure:"max_redirects" validate:"gte=0"`
	TransportRetries int           `mapstructure:"transport_retries" validate:"gte=0,lte=1"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

type WebhookConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries     int           `mapstructure:"retries" validate:"gte=0,lte=1"`
	WorkerCount int           `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int           `mapstructure:"queue_size" validate:"gte=1"`
}

type AlertConfig struct {
	WorkerCount    int           `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize      int           `mapstructure:"queue_size" validate:"gte=1"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" validate:"gt=0"`
}

type RunnerConfig struct {
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gte=1"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	StoreTimeout   time.Duration `mapstructure:"store_timeout" validate:"gt=0"`
}

type Config struct {
	Env         string         `mapstructure:"env" validate:"required"`
	ServiceName string         `mapstructure:"service_name" validate:"required"`
	Port        int            `mapstructure:"port" validate:"gte=1,lte=65535"`
	DB          DBConfig       `mapstructure:"db"`
	Redis       RedisConfig    `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
	Probe       ProbeConfig    `mapstructure:"probe"`
	Webhook     WebhookConfig  `mapstructure:"webhook"`
	Alert       AlertConfig    `mapstructure:"alert"`
	Runner      RunnerConfig   `mapstructure:"runner"`
}
