package webhook

import (
	"context"
	"errors"
	"time"

	"komonitor/pkg/db"
	"komonitor/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Secrets are only honoured for owners outside the free tier.
const paidSecretSQL = `
SELECT s.value, s.created_at
FROM webhook_secrets s
JOIN owners o ON o.id = s.owner_id
WHERE s.owner_id = $1 AND o.billing_tier <> 'free'`

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

// GetSecret returns nil when the owner has no usable secret.
func (r *Repository) GetSecret(ctx context.Context, ownerID string) (*Secret, error) {
	const op string = "repo.webhook.get_secret"

	var s Secret
	err := r.db.QueryRow(ctx, paidSecretSQL, ownerID).Scan(&s.Value, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return &s, nil
}

type SecretCache interface {
	GetSecret(ctx context.Context, ownerID string) (Secret, bool)
	SetSecret(ctx context.Context, ownerID string, s Secret, ttl time.Duration) error
}

// CachedSecrets puts a cache in front of another SecretStore. A missing
// secret is cached as an empty value so free tier owners skip the database too.
type CachedSecrets struct {
	cache  SecretCache
	store  SecretStore
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCachedSecrets(cache SecretCache, store SecretStore, ttl time.Duration, logger *zerolog.Logger) *CachedSecrets {
	return &CachedSecrets{
		cache:  cache,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedSecrets) GetSecret(ctx context.Context, ownerID string) (*Secret, error) {
	if s, ok := c.cache.GetSecret(ctx, ownerID); ok {
		if s.Value == "" {
			return nil, nil
		}
		return &s, nil
	}

	s, err := c.store.GetSecret(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var cached Secret
	if s != nil {
		cached = *s
	}
	if err := c.cache.SetSecret(ctx, ownerID, cached, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to cache webhook secret")
	}
	return s, nil
}
