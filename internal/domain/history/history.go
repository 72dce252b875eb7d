// Package history is the learned-match stage. Confirmed mappings are appended
// to a ports.MappingStore; each import session loads them once into an
// immutable Index keyed by normalized header.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/corey/colrecon/internal/ports"
	"github.com/google/uuid"
)

// Validation errors returned by Recorder.Record.
var (
	ErrUnknownField    = errors.New("unknown canonical field")
	ErrConfidenceRange = errors.New("confidence must be within [0, 1]")
	ErrEmptyHeader     = errors.New("header is empty after normalization")
	ErrEmptyTenant     = errors.New("tenant is required")
)

const (
	// DefaultSource tags records confirmed by a person in the review surface.
	DefaultSource = "user"
	// DefaultConfidence is recorded when a confirmation does not carry one.
	DefaultConfidence = 0.95
)

// =============================================================================
// Index
// =============================================================================

// Index is a read-only snapshot of one tenant's mappings. A nil *Index is an
// empty index.
type Index struct {
	byHeader map[string]ports.MappingRecord
}

// NewIndex keeps, for every normalized header, the record with the latest
// timestamp (larger key on equal timestamps). Input order does not matter.
// Records naming a field outside the canonical set are ignored.
func NewIndex(records []ports.MappingRecord) *Index {
	ix := &Index{byHeader: make(map[string]ports.MappingRecord, len(records))}
	for _, rec := range records {
		if !indexable(rec) {
			continue
		}
		if cur, ok := ix.byHeader[rec.NormalizedHeader]; ok && !rec.Newer(cur) {
			continue
		}
		ix.byHeader[rec.NormalizedHeader] = rec
	}
	return ix
}

// indexable reports whether a record can answer a lookup.
func indexable(rec ports.MappingRecord) bool {
	return rec.NormalizedHeader != "" && field.Field(rec.Field).Valid()
}

// Load reads every record of the tenant in one call and indexes them.
func Load(ctx context.Context, store ports.MappingStore, tenant string) (*Index, error) {
	records, err := store.LoadAll(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load mappings for %s: %w", tenant, err)
	}
	return NewIndex(records), nil
}

// Lookup returns the learned field for a normalized header.
func (ix *Index) Lookup(normalized string) (field.Field, bool) {
	if ix == nil {
		return "", false
	}
	rec, ok := ix.byHeader[normalized]
	if !ok {
		return "", false
	}
	return field.Field(rec.Field), true
}

// Len returns the number of distinct headers in the index.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byHeader)
}

// =============================================================================
// Recorder (learning write path)
// =============================================================================

// Recorder appends confirmed mappings. Every call writes a new record with a
// fresh UUIDv7 key; nothing is ever overwritten.
type Recorder struct {
	store  ports.MappingStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder returns a Recorder writing to store. A nil logger falls back to
// slog.Default().
func NewRecorder(store ports.MappingStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and appends one mapping. An empty source is recorded as
// DefaultSource.
func (r *Recorder) Record(ctx context.Context, tenant, originalHeader string, f field.Field, confidence float64, source string) (ports.MappingRecord, error) {
	if tenant == "" {
		return ports.MappingRecord{}, ErrEmptyTenant
	}
	if !f.Valid() {
		return ports.MappingRecord{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	if confidence < 0 || confidence > 1 {
		return ports.MappingRecord{}, fmt.Errorf("%w: %v", ErrConfidenceRange, confidence)
	}
	normalized := normalize.Header(originalHeader)
	if normalized == "" {
		return ports.MappingRecord{}, fmt.Errorf("%w: %q", ErrEmptyHeader, originalHeader)
	}
	if source == "" {
		source = DefaultSource
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ports.MappingRecord{}, fmt.Errorf("generate key: %w", err)
	}
	rec := ports.MappingRecord{
		Key:              id.String(),
		Tenant:           tenant,
		NormalizedHeader: normalized,
		OriginalHeader:   originalHeader,
		Field:            string(f),
		Confidence:       confidence,
		Source:           source,
		CreatedAt:        r.now(),
	}
	if err := r.store.Append(ctx, rec); err != nil {
		r.logger.Warn("record mapping failed",
			"tenant", tenant, "header", normalized, "field", f, "err", err)
		return ports.MappingRecord{}, fmt.Errorf("append mapping: %w", err)
	}
	r.logger.Debug("mapping recorded",
		"tenant", tenant, "header", normalized, "field", f, "source", source)
	return rec, nil
}

// =============================================================================
// Listing
// =============================================================================

// SortNewestFirst orders records by timestamp descending, then key descending.
func SortNewestFirst(records []ports.MappingRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Newer(records[j])
	})
}

// List returns a tenant's records newest first. A non-empty header filters
// on its normalized form.
func List(ctx context.Context, store ports.MappingStore, tenant, header string) ([]ports.MappingRecord, error) {
	records, err := store.LoadAll(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load mappings for %s: %w", tenant, err)
	}
	if header != "" {
		want := normalize.Header(header)
		filtered := records[:0]
		for _, rec := range records {
			if rec.NormalizedHeader == want {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	SortNewestFirst(records)
	return records, nil
}
