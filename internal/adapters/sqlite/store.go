// Package sqlite implements ports.MappingStore on SQLite via the cgo-free
// modernc.org/sqlite driver. Records live in one column_mappings table; the
// tenant is a column, not a separate database.
//
// Timestamps are stored as RFC3339Nano TEXT: SQLite has no native timestamp
// type, and text round-trips exactly.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

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
	confidence        REAL NOT NULL,
	source            TEXT NOT NULL,
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS column_mappings_tenant_header
	ON column_mappings (tenant_id, normalized_header);
`

// deleteChunk bounds the number of bound parameters per DELETE.
const deleteChunk = 500

// Store implements ports.MappingStore for SQLite.
type Store struct {
	db *sql.DB
}

var _ ports.MappingStore = (*Store)(nil)

func init() {
	registry.Register("sqlite", func(ctx context.Context, dsn string) (ports.MappingStore, error) {
		s, err := Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Open connects to dsn (a file path or "file:...?..." URI) and creates the
// table if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// SQLite allows one writer; a single connection queues writers in the
	// pool instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create column_mappings: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Append inserts one record.
func (s *Store) Append(ctx context.Context, rec ports.MappingRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO column_mappings
			(id, tenant_id, normalized_header, original_header, canonical_field, confidence, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.Tenant, rec.NormalizedHeader, rec.OriginalHeader,
		rec.Field, rec.Confidence, rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert mapping %s: %w", rec.Key, err)
	}
	return nil
}

// LoadAll returns a tenant's records ordered by key. Returns nil, nil when
// the tenant has none.
func (s *Store) LoadAll(ctx context.Context, tenant string) ([]ports.MappingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_header, original_header, canonical_field, confidence, source, created_at
		FROM column_mappings
		WHERE tenant_id = ?
		ORDER BY id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("select mappings: %w", err)
	}
	defer rows.Close()

	var out []ports.MappingRecord
	for rows.Next() {
		rec := ports.MappingRecord{Tenant: tenant}
		var created string
		if err := rows.Scan(&rec.Key, &rec.NormalizedHeader, &rec.OriginalHeader,
			&rec.Field, &rec.Confidence, &rec.Source, &created); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: created_at %q: %w", rec.Key, created, err)
		}
		rec.CreatedAt = ts.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the given keys for a tenant.
func (s *Store) Delete(ctx context.Context, tenant string, keys []string) (int, error) {
	total := 0
	for start := 0; start < len(keys); start += deleteChunk {
		chunk := keys[start:min(start+deleteChunk, len(keys))]

		var b strings.Builder
		b.WriteString("DELETE FROM column_mappings WHERE tenant_id = ? AND id IN (")
		args := make([]any, 0, len(chunk)+1)
		args = append(args, tenant)
		for i, k := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, k)
		}
		b.WriteString(")")

		res, err := s.db.ExecContext(ctx, b.String(), args...)
		if err != nil {
			return total, fmt.Errorf("delete mappings: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += int(n)
	}
	return total, nil
}

// Tenants lists every tenant with at least one record.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM column_mappings ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
