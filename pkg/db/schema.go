package db

import "context"

// The owners and webhook_secrets tables are written by the dashboard; this
// service only reads them, but creates them so a fresh database is usable.
const schema = `
CREATE TABLE IF NOT EXISTS owners (
	id           TEXT PRIMARY KEY,
	billing_tier TEXT NOT NULL DEFAULT 'free'
);

CREATE TABLE IF NOT EXISTS webhook_secrets (
	owner_id   TEXT PRIMARY KEY REFERENCES owners(id) ON DELETE CASCADE,
	value      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS uptime_statuses (
	id           UUID NOT NULL,
	monitor_id   TEXT NOT NULL,
	timestamp    BIGINT NOT NULL,
	status       TEXT NOT NULL,
	latency_ms   DOUBLE PRECISION NOT NULL,
	attempts     INTEGER NOT NULL,
	response     JSONB,
	checks       JSONB NOT NULL,
	monitor      JSONB NOT NULL,
	PRIMARY KEY (monitor_id, timestamp)
);

CREATE TABLE IF NOT EXISTS alert_invocations (
	monitor_id TEXT NOT NULL,
	timestamp  BIGINT NOT NULL,
	alert      JSONB NOT NULL,
	ongoing    BOOLEAN NOT NULL,
	triggers   JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (monitor_id, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_alert_invocations_ongoing ON alert_invocations (monitor_id) WHERE ongoing;
`

// Migrate ensures the tables used by the uptime pipeline exist.
func Migrate(ctx context.Context, conn DBTX) error {
	_, err := conn.Exec(ctx, schema)
	return err
}
