// Package similarity scores a normalized header against every alias in the
// dictionary using edit distance and keyword overlap, with an optional boost
// for fields the column's content looks like.
package similarity

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/corey/colrecon/internal/domain/dictionary"
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCost counts insertions, deletions and substitutions as one edit each.
// levenshtein.DefaultOptions charges 2 for a substitution.
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Text returns 1 - distance/max(len) over runes. Two empty strings score 0.
func Text(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	d := levenshtein.DistanceForStrings([]rune(a), []rune(b), unitCost)
	return 1 - float64(d)/float64(longest)
}

// Keyword returns matched/max(|h|,|a|). Each header keyword pairs with at most
// one unused alias keyword, the most similar one above threshold.
func Keyword(h, a []string, threshold float64) float64 {
	if len(h) == 0 || len(a) == 0 {
		return 0
	}
	used := make([]bool, len(a))
	matched := 0
	for _, hk := range h {
		best, bestSim := -1, threshold
		for j, ak := range a {
			if used[j] {
				continue
			}
			if sim := Text(hk, ak); sim > bestSim {
				best, bestSim = j, sim
			}
		}
		if best >= 0 {
			used[best] = true
			matched++
		}
	}
	return float64(matched) / float64(max(len(h), len(a)))
}

// Options are the scoring knobs. See resolver.Params for defaults.
type Options struct {
	ContentBoost          float64
	CandidateThreshold    float64
	// Ceiling is exclusive: a boosted score is clamped just below it, so
	// fuzzy results never reach the confidence of an exact match.
	Ceiling               float64
	KeywordMatchThreshold float64
	MinKeywordLen         int
}

// Candidate is the best-scoring alias of one canonical field.
type Candidate struct {
	Field      field.Field
	Confidence float64
	Boosted    bool // confidence includes the content boost
	Rank       int  // priority rank of the winning alias
}

// Scorer holds the alias table with pre-split keywords. Immutable after
// construction, safe for concurrent use.
type Scorer struct {
	entries  []dictionary.AliasEntry
	keywords [][]string
	opts     Options
	limit    float64 // largest score below opts.Ceiling
}

// NewScorer prepares a scorer over the dictionary's entries.
func NewScorer(d *dictionary.Dictionary, opts Options) *Scorer {
	entries := d.Entries()
	kw := make([][]string, len(entries))
	for i, e := range entries {
		kw[i] = normalize.Tokens(e.Normalized, opts.MinKeywordLen)
	}
	return &Scorer{entries: entries, keywords: kw, opts: opts, limit: math.Nextafter(opts.Ceiling, 0)}
}

// Score returns one candidate per canonical field whose confidence exceeds
// the candidate threshold, sorted by confidence descending then alias rank
// ascending. Returns nil when nothing qualifies.
func (s *Scorer) Score(normalized string, detected field.Set) []Candidate {
	if normalized == "" {
		return nil
	}
	hk := normalize.Tokens(normalized, s.opts.MinKeywordLen)

	best := make(map[field.Field]Candidate)
	for i, e := range s.entries {
		raw := max(Text(normalized, e.Normalized), Keyword(hk, s.keywords[i], s.opts.KeywordMatchThreshold))

		c := Candidate{Field: e.Field, Rank: e.Rank}
		conf := raw
		if detected.Has(e.Field) {
			conf += s.opts.ContentBoost
			c.Boosted = s.opts.ContentBoost > 0
		}
		c.Confidence = min(conf, s.limit)
		if c.Confidence <= s.opts.CandidateThreshold {
			continue
		}

		prev, seen := best[e.Field]
		if !seen || c.Confidence > prev.Confidence {
			// Entries iterate in rank order, so an equal score keeps the earlier alias.
			best[e.Field] = c
		}
	}
	if len(best) == 0 {
		return nil
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}
