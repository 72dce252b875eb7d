// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	"sort"

	"github.com/corey/colrecon/internal/ports"
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Scanner implements ports.KeywordScanner. The automaton is compiled once;
// scanning does not mutate it, so one Scanner serves concurrent callers.
type Scanner struct {
	automaton aho.AhoCorasick
	patterns  []string
}

var _ ports.KeywordScanner = (*Scanner)(nil)

// NewScanner builds a scanner from the given patterns. Empty patterns are
// kept in the index space but never reported.
func NewScanner(patterns []string) *Scanner {
	p := make([]string, len(patterns))
	copy(p, patterns)

	// Empty patterns would match at every offset.
	build := make([]string, len(p))
	for i, s := range p {
		if s == "" {
			s = "\x00"
		}
		build[i] = s
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	return &Scanner{
		automaton: builder.Build(build),
		patterns:  p,
	}
}

// NewKeywordScanner adapts NewScanner to the constructor shape the domain
// packages accept.
func NewKeywordScanner(patterns []string) ports.KeywordScanner {
	return NewScanner(patterns)
}

// Scan returns the distinct indexes of patterns found in text, ascending.
// Overlapping occurrences all count, so "num" and "number" both hit
// "phone_number".
func (s *Scanner) Scan(text string) []int {
	if len(s.patterns) == 0 {
		return nil
	}
	iter := s.automaton.IterOverlappingByte([]byte(text))
	seen := make(map[int]bool)
	var idx []int
	for next := iter.Next(); next != nil; next = iter.Next() {
		i := next.Pattern()
		if s.patterns[i] == "" || seen[i] {
			continue
		}
		seen[i] = true
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
