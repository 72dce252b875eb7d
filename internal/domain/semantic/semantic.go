// Package semantic is the last-resort resolution stage: ordered keyword
// substring rules over the normalized header, then a single detected content
// type.
package semantic

import (
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/corey/colrecon/internal/ports"
)

// Rule maps any of its keywords, found anywhere in a normalized header, to a
// field. When IfDetected is set and that field was detected in the content,
// it wins over Field.
type Rule struct {
	Keywords   []string
	Field      field.Field
	IfDetected field.Field
}

// DefaultRules is the built-in rule table. Order matters: the first matching
// rule wins, so narrower meanings ("due", "fine") come before broad ones
// ("date", "amount"), and phone precedes customer so "customer_phone"
// resolves to the phone.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"fine", "penalty", "غرامة"}, Field: field.LateFineAmount},
		{Keywords: []string{"due", "استحقاق"}, Field: field.DueDate},
		{Keywords: []string{"method", "طريقة"}, Field: field.PaymentMethod},
		{Keywords: []string{"status", "حالة"}, Field: field.PaymentStatus},
		{Keywords: []string{"مبلغ", "amount", "قيمة"}, Field: field.Amount},
		{Keywords: []string{"تاريخ", "date"}, Field: field.PaymentDate},
		{Keywords: []string{"هاتف", "phone", "mobile", "جوال"}, Field: field.CustomerPhone},
		{Keywords: []string{"عميل", "customer", "client"}, Field: field.CustomerName},
		{Keywords: []string{"رقم", "number", "مرجع"}, Field: field.ReferenceNumber, IfDetected: field.ContractNumber},
		{Keywords: []string{"ملاحظات", "notes", "description"}, Field: field.Notes},
	}
}

// Options configure a Guesser.
type Options struct {
	RuleConfidence    float64
	ContentConfidence float64
}

// Guesser applies the rule table. Immutable after New.
type Guesser struct {
	rules   []Rule
	scanner ports.KeywordScanner
	owner   []int // keyword index -> rule index
	opts    Options
}

// New normalizes every rule keyword and compiles them into one scanner
// built by newScanner.
func New(rules []Rule, newScanner func([]string) ports.KeywordScanner, opts Options) *Guesser {
	var keywords []string
	var owner []int
	for i, r := range rules {
		for _, kw := range r.Keywords {
			if n := normalize.Header(kw); n != "" {
				keywords = append(keywords, n)
				owner = append(owner, i)
			}
		}
	}
	return &Guesser{
		rules:   rules,
		scanner: newScanner(keywords),
		owner:   owner,
		opts:    opts,
	}
}

// Guess returns the field and confidence for a header no earlier stage
// resolved. ok is false when neither a rule nor a lone detected type applies.
func (g *Guesser) Guess(normalized string, detected field.Set) (field.Field, float64, bool) {
	if normalized != "" {
		if hits := g.scanner.Scan(normalized); len(hits) > 0 {
			first := g.owner[hits[0]]
			for _, h := range hits[1:] {
				first = min(first, g.owner[h])
			}
			r := g.rules[first]
			if r.IfDetected != "" && detected.Has(r.IfDetected) {
				return r.IfDetected, g.opts.RuleConfidence, true
			}
			return r.Field, g.opts.RuleConfidence, true
		}
	}

	if len(detected) == 1 {
		for f := range detected {
			return f, g.opts.ContentConfidence, true
		}
	}
	return "", 0, false
}
