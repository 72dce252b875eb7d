package semantic

import (
	"testing"

	"github.com/corey/colrecon/internal/adapters/ahocorasick"
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Semantic fallback: ordered keyword rules, lone detected type
// =============================================================================

func newTestGuesser() *Guesser {
	return New(DefaultRules(), ahocorasick.NewKeywordScanner, Options{RuleConfidence: 0.5, ContentConfidence: 0.3})
}

func TestGuess_KeywordRules(t *testing.T) {
	g := newTestGuesser()
	tests := []struct {
		header string
		want   field.Field
	}{
		{"Grand Amount Due", field.DueDate},
		{"late fine date", field.LateFineAmount},
		{"Collection Method", field.PaymentMethod},
		{"حالة القسط", field.PaymentStatus},
		{"اجمالي المبلغ", field.Amount},
		{"Txn Date", field.PaymentDate},
		{"customer phone", field.CustomerPhone},
		{"رقم جوال العميل", field.CustomerPhone},
		{"Client Code", field.CustomerName},
		{"Voucher Number", field.ReferenceNumber},
		{"Line Description", field.Notes},
		{"الغرامة المتأخرة", field.LateFineAmount},
	}
	for _, tt := range tests {
		f, conf, ok := g.Guess(normalize.Header(tt.header), nil)
		if assert.True(t, ok, "header %q", tt.header) {
			assert.Equal(t, tt.want, f, "header %q", tt.header)
			assert.Equal(t, 0.5, conf)
		}
	}
}

func TestGuess_NumberRuleFollowsDetectedContractShape(t *testing.T) {
	g := newTestGuesser()
	h := normalize.Header("رقم السند")

	f, _, ok := g.Guess(h, nil)
	assert.True(t, ok)
	assert.Equal(t, field.ReferenceNumber, f)

	f, _, ok = g.Guess(h, field.NewSet(field.ContractNumber))
	assert.True(t, ok)
	assert.Equal(t, field.ContractNumber, f)
}

func TestGuess_LoneDetectedType(t *testing.T) {
	g := newTestGuesser()

	f, conf, ok := g.Guess("xyzzy", field.NewSet(field.Amount))
	assert.True(t, ok)
	assert.Equal(t, field.Amount, f)
	assert.Equal(t, 0.3, conf)

	// Dates detect two fields, which is not a single type.
	_, _, ok = g.Guess("xyzzy", field.NewSet(field.PaymentDate, field.DueDate))
	assert.False(t, ok)
}

func TestGuess_Unresolved(t *testing.T) {
	g := newTestGuesser()
	_, conf, ok := g.Guess("xyzzy", nil)
	assert.False(t, ok)
	assert.Equal(t, 0.0, conf)

	_, _, ok = g.Guess("", nil)
	assert.False(t, ok)
}

func TestGuess_CustomRules(t *testing.T) {
	rules := []Rule{{Keywords: []string{"plate", "لوحة"}, Field: field.VehiclePlate}}
	g := New(rules, ahocorasick.NewKeywordScanner, Options{RuleConfidence: 0.45})
	f, conf, ok := g.Guess(normalize.Header("رقم اللوحة"), nil)
	assert.True(t, ok)
	assert.Equal(t, field.VehiclePlate, f)
	assert.Equal(t, 0.45, conf)
}
