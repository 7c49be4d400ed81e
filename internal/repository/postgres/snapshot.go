package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// SnapshotRepository implements repository.SnapshotRepository as one JSONB
// row per storage key in cart_snapshots.
type SnapshotRepository struct {
	db database.DBTX
}

// NewSnapshotRepository creates a PostgreSQL-backed snapshot repository.
func NewSnapshotRepository(db database.DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get reads and decodes the snapshot stored under key.
func (r *SnapshotRepository) Get(ctx context.Context, key string) (domain.Cart, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM cart_snapshots WHERE storage_key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart snapshot", key)
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}

	return domain.DecodeSnapshot(payload)
}

// Save upserts the snapshot under key.
func (r *SnapshotRepository) Save(ctx context.Context, key string, cart domain.Cart) error {
	payload, err := domain.EncodeSnapshot(cart)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO cart_snapshots (storage_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (storage_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}

// Ping runs a trivial query.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
