package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"komonitor/internals/modules/webhook"
	"komonitor/pkg/apperror"
	"komonitor/pkg/utils"
)

func secretKey(ownerID string) string {
	return fmt.Sprintf("owner:webhook_secret:%v", ownerID)
}

func (c *Client) SetSecret(ctx context.Context, ownerID string, s webhook.Secret, ttl time.Duration) error {
	const op string = "cache.secret.set"

	payload, err := json.Marshal(s)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	if err := c.rdb.Set(ctx, secretKey(ownerID), payload, ttl).Err(); err != nil {
		return utils.WrapCacheError(op, err)
	}
	return nil
}

// GetSecret reports false on a miss or any read error.
func (c *Client) GetSecret(ctx context.Context, ownerID string) (webhook.Secret, bool) {
	res, err := c.rdb.Get(ctx, secretKey(ownerID)).Bytes()
	if err != nil {
		return webhook.Secret{}, false
	}
	var s webhook.Secret
	if err := json.Unmarshal(res, &s); err != nil {
		return webhook.Secret{}, false
	}
	return s, true
}
