package incident

import (
	"context"
	"encoding/json"
	"errors"

	"komonitor/pkg/apperror"
	"komonitor/pkg/db"
	"komonitor/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const latestInvocationSQL = `
SELECT monitor_id, timestamp, alert, ongoing, triggers
FROM alert_invocations
WHERE monitor_id = $1
ORDER BY timestamp DESC
LIMIT 1`

const resolveInvocationSQL = `
UPDATE alert_invocations
SET ongoing = false
WHERE monitor_id = $1 AND timestamp = $2 AND ongoing`

type Repository struct {
	db     db.DBTX
	logger *zerolog.Logger
}

func NewRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *Repository {
	return &Repository{
		db:     dbExecutor,
		logger: logger,
	}
}

// Latest returns the most recent invocation of a monitor, or nil when it has none.
func (r *Repository) Latest(ctx context.Context, monitorID string) (*Invocation, error) {
	const op string = "repo.incident.latest"

	var (
		inv      Invocation
		alert    []byte
		triggers []byte
	)
	err := r.db.QueryRow(ctx, latestInvocationSQL, monitorID).
		Scan(&inv.MonitorID, &inv.Timestamp, &alert, &inv.Ongoing, &triggers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if len(alert) > 0 {
		if err := json.Unmarshal(alert, &inv.Alert); err != nil {
			return nil, apperror.New(apperror.Internal, op, err)
		}
	}
	if len(triggers) > 0 {
		if err := json.Unmarshal(triggers, &inv.Triggers); err != nil {
			return nil, apperror.New(apperror.Internal, op, err)
		}
	}
	return &inv, nil
}

// Resolve flips an ongoing invocation to resolved. It reports false when the
// row was already resolved or replaced in the meantime.
func (r *Repository) Resolve(ctx context.Context, monitorID string, timestamp int64) (bool, error) {
	const op string = "repo.incident.resolve"

	tag, err := r.db.Exec(ctx, resolveInvocationSQL, monitorID, timestamp)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() == 1, nil
}
