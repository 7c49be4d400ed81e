package repository

import (
	"context"

	"github.com/utafrali/rocketshoes/internal/domain"
)

// SnapshotRepository stores one cart snapshot per storage key. Writes are
// full overwrites; the last writer wins.
type SnapshotRepository interface {
	// Get returns the cart stored under key. A missing key yields an error
	// matching apperrors.ErrNotFound; an unparseable value one matching
	// domain.ErrCorruptSnapshot.
	Get(ctx context.Context, key string) (domain.Cart, error)

	// Save overwrites the snapshot under key.
	Save(ctx context.Context, key string, cart domain.Cart) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
