// Package bbolt implements ports.MappingStore using bbolt (embedded B+ tree).
// Each tenant gets its own top-level bucket keyed by 16-byte UUIDv7 record
// keys. Writes are transactional. A crash mid-write cannot corrupt previously
// committed data. Appends of distinct keys never conflict: bbolt serializes
// write transactions and each append only inserts.
package bbolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corey/colrecon/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// ErrDuplicateKey is returned when appending a key that already exists.
var ErrDuplicateKey = errors.New("mapping key already exists")

// Store implements ports.MappingStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.MappingStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one record into the tenant's bucket.
func (s *Store) Append(ctx context.Context, rec ports.MappingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Tenant == "" {
		return fmt.Errorf("append: empty tenant")
	}
	k, err := encodeKey(rec.Key)
	if err != nil {
		return err
	}
	v, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(rec.Tenant))
		if err != nil {
			return err
		}
		if b.Get(k) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Key)
		}
		return b.Put(k, v)
	})
}

// LoadAll returns every record for a tenant in key (creation) order.
// Returns nil, nil if the tenant has no bucket.
func (s *Store) LoadAll(ctx context.Context, tenant string) ([]ports.MappingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ports.MappingRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tenant))
		if b == nil {
			return nil
		}
		// json.Unmarshal copies, so nothing references tx memory afterwards.
		return b.ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(tenant, k, v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Delete removes the given keys from the tenant's bucket.
func (s *Store) Delete(ctx context.Context, tenant string, keys []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	encoded := make([][]byte, 0, len(keys))
	for _, key := range keys {
		k, err := encodeKey(key)
		if err != nil {
			return 0, err
		}
		encoded = append(encoded, k)
	}

	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tenant))
		if b == nil {
			return nil
		}
		for _, k := range encoded {
			if b.Get(k) == nil {
				continue
			}
			if err := b.Delete(k); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Tenants lists every tenant with a bucket.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tenants []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			tenants = append(tenants, string(name))
			return nil
		})
	})
	return tenants, err
}

func unixNanoUTC(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
