// Package storetest is a conformance suite every ports.MappingStore adapter
// runs from its own tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/corey/colrecon/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) ports.MappingStore

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Record builds a record with a fresh UUIDv7 key.
func Record(t *testing.T, tenant, header, field string, at time.Time) ports.MappingRecord {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return ports.MappingRecord{
		Key:              id.String(),
		Tenant:           tenant,
		NormalizedHeader: header,
		OriginalHeader:   header,
		Field:            field,
		Confidence:       0.95,
		Source:           "user",
		CreatedAt:        at,
	}
}

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AppendLoadRoundtrip", func(t *testing.T) { testRoundtrip(t, newStore) })
	t.Run("EmptyTenant", func(t *testing.T) { testEmptyTenant(t, newStore) })
	t.Run("TenantIsolation", func(t *testing.T) { testTenantIsolation(t, newStore) })
	t.Run("DuplicateKeyRejected", func(t *testing.T) { testDuplicateKey(t, newStore) })
	t.Run("MultipleRecordsPerHeader", func(t *testing.T) { testMultiplePerHeader(t, newStore) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore) })
	t.Run("Tenants", func(t *testing.T) { testTenants(t, newStore) })
}

func open(t *testing.T, newStore Factory) ports.MappingStore {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRoundtrip(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)

	want := Record(t, "acme", "client_ref", "reference_number", base)
	want.OriginalHeader = "Client Ref"
	want.Confidence = 0.97
	want.Source = "pipeline"
	require.NoError(t, s.Append(ctx, want))

	got, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.Key, got[0].Key)
	assert.Equal(t, "acme", got[0].Tenant)
	assert.Equal(t, "client_ref", got[0].NormalizedHeader)
	assert.Equal(t, "Client Ref", got[0].OriginalHeader)
	assert.Equal(t, "reference_number", got[0].Field)
	assert.Equal(t, 0.97, got[0].Confidence)
	assert.Equal(t, "pipeline", got[0].Source)
	assert.True(t, want.CreatedAt.Equal(got[0].CreatedAt), "timestamp %v != %v", want.CreatedAt, got[0].CreatedAt)
}

func testEmptyTenant(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	got, err := s.LoadAll(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := s.Delete(context.Background(), "nobody", []string{uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testTenantIsolation(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)
	require.NoError(t, s.Append(ctx, Record(t, "acme", "total", "amount", base)))
	require.NoError(t, s.Append(ctx, Record(t, "globex", "total", "amount_paid", base)))

	acme, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, "amount", acme[0].Field)

	globex, err := s.LoadAll(ctx, "globex")
	require.NoError(t, err)
	require.Len(t, globex, 1)
	assert.Equal(t, "amount_paid", globex[0].Field)

	// Deleting through the wrong tenant removes nothing.
	n, err := s.Delete(ctx, "globex", []string{acme[0].Key})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testDuplicateKey(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)
	rec := Record(t, "acme", "total", "amount", base)
	require.NoError(t, s.Append(ctx, rec))
	assert.Error(t, s.Append(ctx, rec), "append must never overwrite")

	got, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testMultiplePerHeader(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, Record(t, "acme", "client_ref", "reference_number", base.Add(time.Duration(i)*time.Second))))
	}
	got, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func testDelete(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)
	a := Record(t, "acme", "h", "notes", base)
	b := Record(t, "acme", "h", "notes", base.Add(time.Minute))
	c := Record(t, "acme", "h", "notes", base.Add(2*time.Minute))
	for _, r := range []ports.MappingRecord{a, b, c} {
		require.NoError(t, s.Append(ctx, r))
	}

	n, err := s.Delete(ctx, "acme", []string{a.Key, b.Key, uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.Key, got[0].Key)
}

func testConcurrentAppends(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)

	const writers, each = 8, 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*each)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				id, err := uuid.NewV7()
				if err != nil {
					errs <- err
					return
				}
				rec := ports.MappingRecord{
					Key: id.String(), Tenant: "acme",
					NormalizedHeader: fmt.Sprintf("h%d", w), Field: "notes",
					Confidence: 0.95, Source: "user", CreatedAt: time.Now().UTC(),
				}
				if err := s.Append(ctx, rec); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent append: %v", err)
	}

	got, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, got, writers*each, "no append may be lost")
}

func testTenants(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := open(t, newStore)
	lister, ok := s.(ports.TenantLister)
	if !ok {
		t.Skip("store does not list tenants")
	}
	require.NoError(t, s.Append(ctx, Record(t, "globex", "a", "notes", base)))
	require.NoError(t, s.Append(ctx, Record(t, "acme", "a", "notes", base)))
	require.NoError(t, s.Append(ctx, Record(t, "acme", "b", "notes", base)))

	tenants, err := lister.Tenants(ctx)
	require.NoError(t, err)
	sort.Strings(tenants)
	assert.Equal(t, []string{"acme", "globex"}, tenants)
}
