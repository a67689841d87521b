package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"komonitor/pkg/utils"
)

func statusKey(monitorID string) string {
	return fmt.Sprintf("monitor:status:%v", monitorID)
}

// StoreStatus overwrites the latest status snapshot of a monitor.
func (c *Client) StoreStatus(ctx context.Context, monitorID string, status string, statusCode int, latency float64, checkedAt time.Time) error {
	const op string = "cache.status.store"
	key := statusKey(monitorID)

	err := retry(ctx, 2, func() error {
		return c.rdb.HSet(ctx, key, map[string]any{
			"status":      status,
			"status_code": statusCode,
			"latency_ms":  strconv.FormatFloat(latency, 'f', 3, 64),
			"checked_at":  checkedAt.UnixMilli(),
		}).Err()
	})
	if err != nil {
		return utils.WrapCacheError(op, err)
	}
	return nil
}
