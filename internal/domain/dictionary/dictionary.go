// Package dictionary holds the curated alias table: known raw spellings
// (Arabic and English) of every canonical field. The table is loaded once at
// startup from YAML files and provides O(1) exact lookup on normalized headers.
//
// Entries keep an explicit priority rank (load order) so any tie between
// aliases is broken the same way on every run.
package dictionary

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"gopkg.in/yaml.v3"
)

// AliasEntry is one known spelling of a canonical field.
type AliasEntry struct {
	Alias      string      // as written in the alias file
	Normalized string      // normalize.Header(Alias)
	Field      field.Field // target canonical field
	Rank       int         // priority rank, lower wins ties
}

// yamlField is the YAML-serialized form of one field's alias list.
type yamlField struct {
	Field   string   `yaml:"field"`
	Aliases []string `yaml:"aliases"`
}

// Dictionary is an immutable alias table. Safe for concurrent reads.
type Dictionary struct {
	entries []AliasEntry
	exact   map[string]int // normalized alias -> index into entries
}

// Load reads all YAML alias files from dir in sorted order and builds the table.
// Any malformed entry is an error: a broken alias table must stop startup, not
// surface as a bad resolution later.
func Load(fsys fs.FS, dir string) (*Dictionary, error) {
	d := &Dictionary{exact: make(map[string]int)}
	if err := d.loadDir(fsys, dir); err != nil {
		return nil, err
	}
	if len(d.entries) == 0 {
		return nil, fmt.Errorf("alias table is empty: no entries found in %q", dir)
	}
	return d, nil
}

// Merge returns a new Dictionary with the aliases from an overlay directory
// appended after the receiver's entries (so they rank lower). The receiver is
// left untouched. The same validation as Load applies, including conflicts
// between overlay and existing aliases.
func (d *Dictionary) Merge(fsys fs.FS, dir string) (*Dictionary, error) {
	merged := &Dictionary{
		entries: make([]AliasEntry, len(d.entries)),
		exact:   make(map[string]int, len(d.exact)),
	}
	copy(merged.entries, d.entries)
	for k, v := range d.exact {
		merged.exact[k] = v
	}
	if err := merged.loadDir(fsys, dir); err != nil {
		return nil, err
	}
	return merged, nil
}

func (d *Dictionary) loadDir(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read alias dir %q: %w", dir, err)
	}

	// Sort for deterministic load order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		var fields []yamlField
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}

		for _, yf := range fields {
			if err := d.add(yf); err != nil {
				return fmt.Errorf("%s: field %q: %w", entry.Name(), yf.Field, err)
			}
		}
	}
	return nil
}

func (d *Dictionary) add(yf yamlField) error {
	f, ok := field.Parse(yf.Field)
	if !ok {
		return fmt.Errorf("unknown canonical field")
	}
	if len(yf.Aliases) == 0 {
		return fmt.Errorf("no aliases")
	}

	for _, alias := range yf.Aliases {
		n := normalize.Header(alias)
		if n == "" {
			return fmt.Errorf("alias %q normalizes to empty", alias)
		}
		if idx, exists := d.exact[n]; exists {
			prev := d.entries[idx]
			if prev.Field != f {
				return fmt.Errorf("alias %q (%s) already maps to %s via %q",
					alias, n, prev.Field, prev.Alias)
			}
			continue // same field, first rank kept
		}
		d.exact[n] = len(d.entries)
		d.entries = append(d.entries, AliasEntry{
			Alias:      alias,
			Normalized: n,
			Field:      f,
			Rank:       len(d.entries),
		})
	}
	return nil
}

// LookupExact returns the field owning a normalized header. O(1).
func (d *Dictionary) LookupExact(normalized string) (field.Field, bool) {
	idx, ok := d.exact[normalized]
	if !ok {
		return "", false
	}
	return d.entries[idx].Field, true
}

// Entries returns the alias table in priority order. Callers must not modify it.
func (d *Dictionary) Entries() []AliasEntry {
	return d.entries
}

// Len returns the number of distinct normalized aliases.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Counts returns the number of aliases per canonical field.
func (d *Dictionary) Counts() map[field.Field]int {
	counts := make(map[field.Field]int)
	for _, e := range d.entries {
		counts[e.Field]++
	}
	return counts
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
