// Package resolver orchestrates the resolution stages for one header:
//
//	exact → historical → fuzzy/content_analysis → semantic
//
// Each stage is terminal on success; later stages never run. Resolve always
// returns a well-formed field.MatchResult and never an error.
package resolver

import (
	"errors"
	"runtime"
	"sync"

	"github.com/corey/colrecon/internal/domain/content"
	"github.com/corey/colrecon/internal/domain/dictionary"
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/history"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/corey/colrecon/internal/domain/semantic"
	"github.com/corey/colrecon/internal/domain/similarity"
	"github.com/corey/colrecon/internal/ports"
)

// Config holds the resolver's collaborators.
type Config struct {
	Dictionary *dictionary.Dictionary
	// NewScanner compiles the semantic rule keywords.
	NewScanner func(keywords []string) ports.KeywordScanner
	Params     Params
	// Rules and Predicates default to the built-in tables when nil.
	Rules      []semantic.Rule
	Predicates []content.Predicate
}

// Resolver is immutable. WithHistory derives a per-session copy; the alias
// table, scorer and rule scanner are shared read-only.
type Resolver struct {
	dict       *dictionary.Dictionary
	history    *history.Index
	scorer     *similarity.Scorer
	inferencer *content.Inferencer
	guesser    *semantic.Guesser
	params     Params
}

// New validates params and prepares every stage.
func New(cfg Config) (*Resolver, error) {
	if cfg.Dictionary == nil {
		return nil, errors.New("resolver: dictionary is required")
	}
	if cfg.NewScanner == nil {
		return nil, errors.New("resolver: keyword scanner constructor is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	p := cfg.Params

	rules := cfg.Rules
	if rules == nil {
		rules = semantic.DefaultRules()
	}

	return &Resolver{
		dict: cfg.Dictionary,
		scorer: similarity.NewScorer(cfg.Dictionary, similarity.Options{
			ContentBoost:          p.ContentBoost,
			CandidateThreshold:    p.CandidateThreshold,
			Ceiling:               p.FuzzyCeiling,
			KeywordMatchThreshold: p.KeywordMatchThreshold,
			MinKeywordLen:         p.MinKeywordLen,
		}),
		inferencer: content.New(content.Options{
			SampleSize:         p.SampleSize,
			DetectionThreshold: p.DetectionThreshold,
		}, cfg.Predicates...),
		guesser: semantic.New(rules, cfg.NewScanner, semantic.Options{
			RuleConfidence:    p.SemanticRuleConfidence,
			ContentConfidence: p.SemanticContentConfidence,
		}),
		params: p,
	}, nil
}

// WithHistory returns a copy of r that consults ix in the historical stage.
func (r *Resolver) WithHistory(ix *history.Index) *Resolver {
	cp := *r
	cp.history = ix
	return &cp
}

// Params returns the active parameters.
func (r *Resolver) Params() Params { return r.params }

// Dictionary returns the alias table in use.
func (r *Resolver) Dictionary() *dictionary.Dictionary { return r.dict }

// Resolve maps one header, with an optional value sample, onto a canonical field.
func (r *Resolver) Resolve(header string, sample []string) field.MatchResult {
	n := normalize.Header(header)
	if n == "" {
		return field.Unresolved(header)
	}

	if f, ok := r.dict.LookupExact(n); ok {
		return resolved(header, f, 1.0, field.MethodExact, nil)
	}

	if f, ok := r.history.Lookup(n); ok {
		return resolved(header, f, r.params.HistoricalConfidence, field.MethodHistorical, nil)
	}

	detected := r.inferencer.Infer(sample)

	if cands := r.scorer.Score(n, detected); len(cands) > 0 {
		top := cands[0]
		method := field.MethodFuzzy
		if top.Boosted {
			method = field.MethodContentAnalysis
		}
		rest := cands[1:]
		if len(rest) > r.params.MaxAlternatives {
			rest = rest[:r.params.MaxAlternatives]
		}
		alts := make([]field.Alternative, len(rest))
		for i, c := range rest {
			alts[i] = field.Alternative{Field: c.Field, Confidence: c.Confidence}
		}
		return resolved(header, top.Field, top.Confidence, method, alts)
	}

	if f, conf, ok := r.guesser.Guess(n, detected); ok {
		return resolved(header, f, conf, field.MethodSemantic, nil)
	}

	return field.Unresolved(header)
}

// ResolveAll resolves columns concurrently with a bounded worker pool.
// Results are in input order.
func (r *Resolver) ResolveAll(columns []ports.Column) []field.MatchResult {
	results := make([]field.MatchResult, len(columns))
	if len(columns) == 0 {
		return results
	}

	workers := r.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, col := range columns {
		wg.Add(1)
		go func(i int, col ports.Column) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release
			results[i] = r.Resolve(col.Header, col.Sample)
		}(i, col)
	}
	wg.Wait()
	return results
}

func resolved(header string, f field.Field, conf float64, m field.Method, alts []field.Alternative) field.MatchResult {
	if alts == nil {
		alts = []field.Alternative{}
	}
	return field.MatchResult{
		OriginalHeader: header,
		BestMatch:      string(f),
		Confidence:     conf,
		Method:         m,
		Alternatives:   alts,
	}
}
