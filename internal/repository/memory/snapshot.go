package memory

import (
	"context"
	"sync"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// SnapshotRepository keeps encoded snapshots in process memory. Values go
// through the same codec as the durable backends so behavior matches.
type SnapshotRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewSnapshotRepository returns an empty in-memory repository.
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{slots: make(map[string][]byte)}
}

func (r *SnapshotRepository) Get(_ context.Context, key string) (domain.Cart, error) {
	r.mu.RLock()
	data, ok := r.slots[key]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("cart snapshot", key)
	}
	return domain.DecodeSnapshot(data)
}

func (r *SnapshotRepository) Save(_ context.Context, key string, cart domain.Cart) error {
	data, err := domain.EncodeSnapshot(cart)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.slots[key] = data
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepository) Ping(context.Context) error { return nil }
