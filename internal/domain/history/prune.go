package history

import (
	"context"
	"fmt"
	"time"

	"github.com/corey/colrecon/internal/ports"
)

// Policy bounds store growth. Zero values disable each rule.
type Policy struct {
	// MaxAge drops records older than this.
	MaxAge time.Duration `yaml:"max_age"`
	// KeepPerHeader keeps only this many most recent records per header.
	KeepPerHeader int `yaml:"keep_per_header"`
}

// Enabled reports whether the policy would ever remove anything.
func (p Policy) Enabled() bool {
	return p.MaxAge > 0 || p.KeepPerHeader > 0
}

// Expired returns the keys the policy removes. The record Index.Lookup
// returns for a header (its newest record naming a canonical field) is always
// kept, so pruning never changes what a lookup returns.
func Expired(records []ports.MappingRecord, p Policy, now time.Time) []string {
	if !p.Enabled() {
		return nil
	}
	groups := make(map[string][]ports.MappingRecord)
	for _, rec := range records {
		groups[rec.NormalizedHeader] = append(groups[rec.NormalizedHeader], rec)
	}

	var keys []string
	for _, group := range groups {
		SortNewestFirst(group)
		live := -1
		for i, rec := range group {
			if indexable(rec) {
				live = i
				break
			}
		}
		for rank, rec := range group {
			if rank == live {
				continue
			}
			tooMany := p.KeepPerHeader > 0 && rank >= p.KeepPerHeader
			tooOld := p.MaxAge > 0 && now.Sub(rec.CreatedAt) > p.MaxAge
			if tooMany || tooOld {
				keys = append(keys, rec.Key)
			}
		}
	}
	return keys
}

// Prune applies the policy to one tenant and returns how many records were
// deleted.
func Prune(ctx context.Context, store ports.MappingStore, tenant string, p Policy, now time.Time) (int, error) {
	if !p.Enabled() {
		return 0, nil
	}
	records, err := store.LoadAll(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("load mappings for %s: %w", tenant, err)
	}
	keys := Expired(records, p, now)
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := store.Delete(ctx, tenant, keys)
	if err != nil {
		return n, fmt.Errorf("prune %s: %w", tenant, err)
	}
	return n, nil
}
