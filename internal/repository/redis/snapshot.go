package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// SnapshotRepository implements repository.SnapshotRepository on a Redis
// string key.
type SnapshotRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSnapshotRepository creates a Redis-backed snapshot repository. A zero
// ttl stores snapshots without expiry.
func NewSnapshotRepository(client redis.UniversalClient, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get reads and decodes the snapshot stored under key.
func (r *SnapshotRepository) Get(ctx context.Context, key string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", key)
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	cart, err := domain.DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Save overwrites the snapshot under key, refreshing the TTL.
func (r *SnapshotRepository) Save(ctx context.Context, key string, cart domain.Cart) error {
	data, err := domain.EncodeSnapshot(cart)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
