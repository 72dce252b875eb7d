package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ports.MappingStore for domain tests.
type memStore struct {
	mu      sync.Mutex
	records map[string][]ports.MappingRecord
	loadErr error
	appErr  error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]ports.MappingRecord)}
}

func (m *memStore) Append(_ context.Context, rec ports.MappingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appErr != nil {
		return m.appErr
	}
	for _, r := range m.records[rec.Tenant] {
		if r.Key == rec.Key {
			return errors.New("duplicate key")
		}
	}
	m.records[rec.Tenant] = append(m.records[rec.Tenant], rec)
	return nil
}

func (m *memStore) LoadAll(_ context.Context, tenant string) ([]ports.MappingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]ports.MappingRecord, len(m.records[tenant]))
	copy(out, m.records[tenant])
	return out, nil
}

func (m *memStore) Delete(_ context.Context, tenant string, keys []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	kept := m.records[tenant][:0]
	n := 0
	for _, r := range m.records[tenant] {
		if drop[r.Key] {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records[tenant] = kept
	return n, nil
}

func (m *memStore) Close() error { return nil }

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(key, header string, f field.Field, at time.Time) ports.MappingRecord {
	return ports.MappingRecord{
		Key: key, Tenant: "acme", NormalizedHeader: header, OriginalHeader: header,
		Field: string(f), Confidence: 0.95, Source: "user", CreatedAt: at,
	}
}

// =============================================================================
// Index: most recent timestamp wins
// =============================================================================

func TestNewIndex_MostRecentWinsRegardlessOfOrder(t *testing.T) {
	older := rec("k2", "client_ref", field.CustomerName, t0)
	newer := rec("k1", "client_ref", field.ReferenceNumber, t0.Add(time.Minute))

	for _, order := range [][]ports.MappingRecord{{older, newer}, {newer, older}} {
		ix := NewIndex(order)
		got, ok := ix.Lookup("client_ref")
		require.True(t, ok)
		assert.Equal(t, field.ReferenceNumber, got)
	}
}

func TestNewIndex_EqualTimestampsBreakOnKey(t *testing.T) {
	a := rec("0190a", "ref", field.Notes, t0)
	b := rec("0190b", "ref", field.ReferenceNumber, t0)
	for _, order := range [][]ports.MappingRecord{{a, b}, {b, a}} {
		got, ok := NewIndex(order).Lookup("ref")
		require.True(t, ok)
		assert.Equal(t, field.ReferenceNumber, got)
	}
}

func TestNewIndex_SkipsUnknownFields(t *testing.T) {
	ix := NewIndex([]ports.MappingRecord{rec("k", "x", field.Field("retired_field"), t0)})
	_, ok := ix.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
}

func TestIndex_NilIsEmpty(t *testing.T) {
	var ix *Index
	_, ok := ix.Lookup("anything")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
}

func TestLoad_WrapsStoreError(t *testing.T) {
	s := newMemStore()
	s.loadErr = errors.New("disk gone")
	_, err := Load(context.Background(), s, "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

// =============================================================================
// Recorder: validation, append-only, unique keys
// =============================================================================

func TestRecord_AppendsAndIsVisibleToNextLoad(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	r := NewRecorder(s, nil)

	got, err := r.Record(ctx, "acme", "Client Ref", field.ReferenceNumber, 0.95, "")
	require.NoError(t, err)
	assert.Equal(t, "client_ref", got.NormalizedHeader)
	assert.Equal(t, "Client Ref", got.OriginalHeader)
	assert.Equal(t, DefaultSource, got.Source)
	assert.Len(t, got.Key, 36)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())

	ix, err := Load(ctx, s, "acme")
	require.NoError(t, err)
	f, ok := ix.Lookup("client_ref")
	require.True(t, ok)
	assert.Equal(t, field.ReferenceNumber, f)

	other, err := Load(ctx, s, "globex")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len(), "tenants are isolated")
}

func TestRecord_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	r := NewRecorder(s, nil)

	for i := 0; i < 50; i++ {
		_, err := r.Record(ctx, "acme", "Client Ref", field.ReferenceNumber, 0.95, "pipeline")
		require.NoError(t, err)
	}
	all, err := s.LoadAll(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, all, 50)

	keys := make(map[string]bool)
	for _, rec := range all {
		keys[rec.Key] = true
	}
	assert.Len(t, keys, 50, "keys must be unique under rapid writes")
}

func TestRecord_Validation(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newMemStore(), nil)

	_, err := r.Record(ctx, "acme", "x", field.Field("salary"), 0.9, "")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = r.Record(ctx, "acme", "x", field.Amount, 1.5, "")
	assert.ErrorIs(t, err, ErrConfidenceRange)

	_, err = r.Record(ctx, "acme", "x", field.Amount, -0.1, "")
	assert.ErrorIs(t, err, ErrConfidenceRange)

	_, err = r.Record(ctx, "acme", " -- ", field.Amount, 0.9, "")
	assert.ErrorIs(t, err, ErrEmptyHeader)

	_, err = r.Record(ctx, "", "x", field.Amount, 0.9, "")
	assert.ErrorIs(t, err, ErrEmptyTenant)
}

func TestRecord_StoreFailureIsReturned(t *testing.T) {
	s := newMemStore()
	s.appErr = errors.New("read-only")
	_, err := NewRecorder(s, nil).Record(context.Background(), "acme", "x", field.Amount, 0.9, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestList_NewestFirstWithHeaderFilter(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for _, r := range []ports.MappingRecord{
		rec("a", "client_ref", field.Notes, t0),
		rec("b", "total", field.Amount, t0.Add(time.Hour)),
		rec("c", "client_ref", field.ReferenceNumber, t0.Add(2*time.Hour)),
	} {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := List(ctx, s, "acme", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Key, all[1].Key, all[2].Key})

	filtered, err := List(ctx, s, "acme", "Client Ref")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "c", filtered[0].Key)
}

// =============================================================================
// Retention
// =============================================================================

func TestExpired_KeepsNewestPerHeader(t *testing.T) {
	now := t0.Add(365 * 24 * time.Hour)
	records := []ports.MappingRecord{
		rec("a1", "a", field.Notes, t0),
		rec("a2", "a", field.Notes, t0.Add(time.Hour)),
		rec("b1", "b", field.Amount, t0),
	}
	keys := Expired(records, Policy{MaxAge: 24 * time.Hour}, now)
	// Everything is old, but each header keeps its newest record.
	assert.ElementsMatch(t, []string{"a1"}, keys)
}

func TestExpired_KeepPerHeader(t *testing.T) {
	var records []ports.MappingRecord
	for i, k := range []string{"k0", "k1", "k2", "k3"} {
		records = append(records, rec(k, "h", field.Notes, t0.Add(time.Duration(i)*time.Minute)))
	}
	keys := Expired(records, Policy{KeepPerHeader: 2}, t0)
	assert.ElementsMatch(t, []string{"k0", "k1"}, keys)
}

func TestExpired_DisabledPolicy(t *testing.T) {
	records := []ports.MappingRecord{rec("a", "h", field.Notes, t0), rec("b", "h", field.Notes, t0)}
	assert.Nil(t, Expired(records, Policy{}, t0.Add(1000*time.Hour)))
}

func TestPrune_LookupUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for i, r := range []ports.MappingRecord{
		rec("a1", "client_ref", field.Notes, t0),
		rec("a2", "client_ref", field.CustomerName, t0.Add(time.Hour)),
		rec("a3", "client_ref", field.ReferenceNumber, t0.Add(2*time.Hour)),
	} {
		require.NoError(t, s.Append(ctx, r), "record %d", i)
	}

	before, err := Load(ctx, s, "acme")
	require.NoError(t, err)

	n, err := Prune(ctx, s, "acme", Policy{MaxAge: time.Minute, KeepPerHeader: 1}, t0.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	after, err := Load(ctx, s, "acme")
	require.NoError(t, err)
	want, _ := before.Lookup("client_ref")
	got, ok := after.Lookup("client_ref")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, field.ReferenceNumber, got)
}

func TestPrune_KeepsLookupWhenNewestFieldIsUnknown(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for _, r := range []ports.MappingRecord{
		rec("a1", "client_ref", field.Notes, t0),
		rec("a2", "client_ref", field.ReferenceNumber, t0.Add(time.Hour)),
		rec("a3", "client_ref", field.Field("iban"), t0.Add(2*time.Hour)),
	} {
		require.NoError(t, s.Append(ctx, r))
	}

	before, err := Load(ctx, s, "acme")
	require.NoError(t, err)
	want, ok := before.Lookup("client_ref")
	require.True(t, ok)
	require.Equal(t, field.ReferenceNumber, want)

	keys := Expired(mustLoadAll(t, s), Policy{KeepPerHeader: 1}, t0.Add(3*time.Hour))
	assert.ElementsMatch(t, []string{"a1"}, keys, "unknown-field record counts toward the limit; the live record stays")

	_, err = Prune(ctx, s, "acme", Policy{MaxAge: time.Minute, KeepPerHeader: 1}, t0.Add(48*time.Hour))
	require.NoError(t, err)

	after, err := Load(ctx, s, "acme")
	require.NoError(t, err)
	got, ok := after.Lookup("client_ref")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func mustLoadAll(t *testing.T, s ports.MappingStore) []ports.MappingRecord {
	t.Helper()
	recs, err := s.LoadAll(context.Background(), "acme")
	require.NoError(t, err)
	return recs
}
