// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import (
	"context"
	"time"
)

// MappingStore persists confirmed header→field mappings. Every backend
// (bbolt, SQLite, Postgres) is tenant-scoped: each tenant gets its own
// namespace and never sees another tenant's records.
//
// The store is append-only. Records are never updated in place; Append with a
// fresh key is the only write, and Delete is reserved for retention pruning.
// Concurrent appends from independent sessions must not lose each other.
type MappingStore interface {
	// Append inserts one record. The record key is assigned by the caller and
	// must be unique; appending an existing key is an error.
	Append(ctx context.Context, rec MappingRecord) error

	// LoadAll returns every record for a tenant in a single read.
	// Returns nil, nil if the tenant has no records.
	LoadAll(ctx context.Context, tenant string) ([]MappingRecord, error)

	// Delete removes the given keys for a tenant and reports how many existed.
	// Missing keys are not an error.
	Delete(ctx context.Context, tenant string, keys []string) (int, error)

	// Close releases the backend.
	Close() error
}

// MappingRecord is one confirmed mapping of a raw header spelling onto a
// canonical field. Key is a UUIDv7 string, so keys sort by creation time.
type MappingRecord struct {
	Key              string    `json:"key"`
	Tenant           string    `json:"tenant"`
	NormalizedHeader string    `json:"normalized_header"`
	OriginalHeader   string    `json:"original_header"`
	Field            string    `json:"field"`
	Confidence       float64   `json:"confidence"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}

// Newer reports whether r supersedes o for the same header: the later
// timestamp wins, and equal timestamps fall back to the larger key.
func (r MappingRecord) Newer(o MappingRecord) bool {
	if !r.CreatedAt.Equal(o.CreatedAt) {
		return r.CreatedAt.After(o.CreatedAt)
	}
	return r.Key > o.Key
}

// TenantLister is implemented by stores that can enumerate their tenants.
// Scheduled retention uses it to prune every tenant.
type TenantLister interface {
	Tenants(ctx context.Context) ([]string, error)
}
