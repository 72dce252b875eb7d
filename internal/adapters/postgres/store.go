// Package postgres implements ports.MappingStore on Postgres through a pgx
// connection pool, for deployments where several application instances share
// one learned-mapping history.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corey/colrecon/internal/adapters/registry"
	"github.com/corey/colrecon/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS column_mappings (
	id                TEXT PRIMARY KEY,
	tenant_id         TEXT NOT NULL,
	normalized_header TEXT NOT NULL,
	original_header   TEXT NOT NULL,
	canonical_field   TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	source            TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS column_mappings_tenant_header
	ON column_mappings (tenant_id, normalized_header);
`

// Store implements ports.MappingStore for Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.MappingStore = (*Store)(nil)

func init() {
	registry.Register("postgres", func(ctx context.Context, dsn string) (ports.MappingStore, error) {
		s, err := Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Open connects a pool to dsn and creates the table if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create column_mappings: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Append inserts one record. A duplicate key violates the primary key.
func (s *Store) Append(ctx context.Context, rec ports.MappingRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO column_mappings
			(id, tenant_id, normalized_header, original_header, canonical_field, confidence, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.Key, rec.Tenant, rec.NormalizedHeader, rec.OriginalHeader,
		rec.Field, rec.Confidence, rec.Source, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert mapping %s: %w", rec.Key, err)
	}
	return nil
}

// LoadAll returns a tenant's records ordered by key.
func (s *Store) LoadAll(ctx context.Context, tenant string) ([]ports.MappingRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, normalized_header, original_header, canonical_field, confidence, source, created_at
		FROM column_mappings
		WHERE tenant_id = $1
		ORDER BY id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("select mappings: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ports.MappingRecord, error) {
		rec := ports.MappingRecord{Tenant: tenant}
		err := row.Scan(&rec.Key, &rec.NormalizedHeader, &rec.OriginalHeader,
			&rec.Field, &rec.Confidence, &rec.Source, &rec.CreatedAt)
		rec.CreatedAt = rec.CreatedAt.UTC()
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan mappings: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Delete removes the given keys for a tenant in one statement.
func (s *Store) Delete(ctx context.Context, tenant string, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM column_mappings WHERE tenant_id = $1 AND id = ANY($2)`, tenant, keys)
	if err != nil {
		return 0, fmt.Errorf("delete mappings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Tenants lists every tenant with at least one record.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM column_mappings ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
