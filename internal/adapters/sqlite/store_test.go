package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/corey/colrecon/internal/adapters/registry"
	"github.com/corey/colrecon/internal/adapters/storetest"
	"github.com/corey/colrecon/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.MappingStore {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "mappings.db"))
		require.NoError(t, err)
		return s
	})
}

func TestStore_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mappings.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	want := storetest.Record(t, "acme", "client_ref", "reference_number", time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.UTC))
	require.NoError(t, s.Append(ctx, want))
	require.NoError(t, s.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.LoadAll(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.CreatedAt, got[0].CreatedAt, "nanoseconds survive the TEXT round trip")
}

func TestStore_LargeDeleteIsChunked(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "mappings.db"))
	require.NoError(t, err)
	defer s.Close()

	var keys []string
	for i := 0; i < deleteChunk+20; i++ {
		rec := storetest.Record(t, "acme", "h", "notes", time.Now())
		require.NoError(t, s.Append(ctx, rec))
		keys = append(keys, rec.Key)
	}
	n, err := s.Delete(ctx, "acme", keys)
	require.NoError(t, err)
	assert.Equal(t, deleteChunk+20, n)
}

func TestStore_Registered(t *testing.T) {
	s, err := registry.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
