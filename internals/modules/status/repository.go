package status

import (
	"context"
	"encoding/json"

	"komonitor/pkg/apperror"
	"komonitor/pkg/db"
	"komonitor/pkg/utils"

	"github.com/rs/zerolog"
)

const insertStatusSQL = `
INSERT INTO uptime_statuses (id, monitor_id, timestamp, status, latency_ms, attempts, response, checks, monitor)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

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

func (r *Repository) Insert(ctx context.Context, rec Record) error {
	const op string = "repo.status.insert"

	response, err := json.Marshal(rec.Response)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	checks, err := json.Marshal(rec.Checks)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	snapshot, err := json.Marshal(rec.Monitor)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}

	_, err = r.db.Exec(ctx, insertStatusSQL,
		rec.ID.String(),
		rec.MonitorID,
		rec.Timestamp,
		string(rec.Status),
		rec.Latency,
		rec.Attempts,
		response,
		checks,
		snapshot,
	)
	if err == nil {
		return nil
	}

	return utils.WrapRepoError(op, err, false, r.logger)
}
