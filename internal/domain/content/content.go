// Package content infers which canonical fields a column holds from the shape
// of its sampled values.
//
// Shapes are Predicates tried in order, most specific first. Each non-empty
// value is claimed by the first predicate that accepts it, so a value shaped
// like a contract number never also counts as a generic reference.
package content

import (
	"strings"

	"github.com/corey/colrecon/internal/domain/field"
)

// Predicate recognizes the value shape of one or more canonical fields.
type Predicate interface {
	Name() string
	Fields() []field.Field
	Match(value string) bool
}

// Options configure an Inferencer.
type Options struct {
	// SampleSize caps how many non-empty values are inspected.
	SampleSize int
	// DetectionThreshold is the claimed fraction a predicate must exceed.
	DetectionThreshold float64
}

// Inferencer runs an ordered predicate list over a column sample.
// Immutable, safe for concurrent use.
type Inferencer struct {
	predicates []Predicate
	opts       Options
}

// New returns an Inferencer using the given predicates in order.
// With no predicates, DefaultPredicates is used.
func New(opts Options, predicates ...Predicate) *Inferencer {
	if len(predicates) == 0 {
		predicates = DefaultPredicates()
	}
	return &Inferencer{predicates: predicates, opts: opts}
}

// DefaultPredicates returns the built-in shapes in specificity order.
func DefaultPredicates() []Predicate {
	return []Predicate{
		newPaymentMethod(),
		contractNumber{},
		date{},
		phone{},
		amount{},
		name{},
		reference{},
	}
}

// Sample trims values and keeps the first n non-empty ones.
func Sample(values []string, n int) []string {
	out := make([]string, 0, min(len(values), n))
	for _, v := range values {
		if len(out) >= n {
			break
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Infer returns every field whose predicate claimed more than the detection
// threshold of the sampled values. An empty sample detects nothing.
func (in *Inferencer) Infer(values []string) field.Set {
	sample := Sample(values, in.opts.SampleSize)
	detected := make(field.Set)
	if len(sample) == 0 {
		return detected
	}

	claimed := make([]int, len(in.predicates))
	for _, v := range sample {
		for i, p := range in.predicates {
			if p.Match(v) {
				claimed[i]++
				break
			}
		}
	}

	for i, p := range in.predicates {
		if float64(claimed[i])/float64(len(sample)) > in.opts.DetectionThreshold {
			for _, f := range p.Fields() {
				detected.Add(f)
			}
		}
	}
	return detected
}
