package content

import (
	"testing"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Content-type inference: predicate order, threshold, sampling
// =============================================================================

func newTestInferencer() *Inferencer {
	return New(Options{SampleSize: 10, DetectionThreshold: 0.6})
}

func TestInfer_Amounts(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"150.000", "75.500", "1,250.50", "QAR 300", "20", "٧٥٫٥"})
	assert.Equal(t, []field.Field{field.Amount}, got.Sorted())
}

func TestInfer_DatesDetectBothDateFields(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"12/03/2024", "2024-03-12", "1-2-24", "31.12.2023", "2024-01-05 10:30"})
	assert.Equal(t, []field.Field{field.DueDate, field.PaymentDate}, got.Sorted())
}

func TestInfer_ContractNumbersAreNotReferences(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"LTO2024-0012", "LTO2024-0013", "CNT-553", "AGR/2023/15", "LTO2024-0099"})
	assert.True(t, got.Has(field.ContractNumber))
	assert.False(t, got.Has(field.ReferenceNumber))
}

func TestInfer_References(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"TX9F3K2L", "A1B2C3D4", "9F3K2L8Q", "Q7W8E9R0", "ZZ9XY8"})
	assert.Equal(t, []field.Field{field.ReferenceNumber}, got.Sorted())
}

func TestInfer_NamesAndPhonesAndMethods(t *testing.T) {
	in := newTestInferencer()

	names := in.Infer([]string{"Ahmed Ali", "Sara Mohammed", "محمد عبدالله", "O'Brien", "Fatima Al-Sayed"})
	assert.Equal(t, []field.Field{field.CustomerName}, names.Sorted())

	phones := in.Infer([]string{"+974 5555 1234", "55551234", "(974) 3333-4444", "٥٥٥٥١٢٣٤"})
	assert.Equal(t, []field.Field{field.CustomerPhone}, phones.Sorted())

	methods := in.Infer([]string{"Cash", "Bank Transfer", "نقدا", "cheque", "تحويل بنكي"})
	assert.Equal(t, []field.Field{field.PaymentMethod}, methods.Sorted())
}

func TestInfer_LargeWholeAmountsAreNotPhones(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"1500000", "2750000", "12000000", "990000", "25000000"})
	assert.Equal(t, []field.Field{field.Amount}, got.Sorted())

	local := in.Infer([]string{"0501234567", "55551234", "33334444", "0097455551234"})
	assert.Equal(t, []field.Field{field.CustomerPhone}, local.Sorted())
}

func TestInfer_ThresholdIsStrict(t *testing.T) {
	in := newTestInferencer()
	six := []string{"1", "2", "3", "4", "5", "6", "Ahmed Ali", "Sara Ali", "Omar Ali", "Huda Ali"}
	assert.False(t, in.Infer(six).Has(field.Amount), "6/10 does not exceed 0.6")

	seven := []string{"1", "2", "3", "4", "5", "6", "7", "Sara Ali", "Omar Ali", "Huda Ali"}
	assert.True(t, in.Infer(seven).Has(field.Amount))
}

func TestInfer_EmptyAndBlankSamples(t *testing.T) {
	in := newTestInferencer()
	assert.Empty(t, in.Infer(nil))
	assert.Empty(t, in.Infer([]string{"", "   ", "\t"}))
}

func TestInfer_MixedDetectsNothing(t *testing.T) {
	in := newTestInferencer()
	got := in.Infer([]string{"150.000", "Ahmed Ali", "12/03/2024", "cash", "LTO2024-0012"})
	assert.Empty(t, got)
}

func TestSample_CapsNonEmptyValues(t *testing.T) {
	values := []string{"", " a ", "b", "  ", "c", "d"}
	assert.Equal(t, []string{"a", "b", "c"}, Sample(values, 3))
	assert.Empty(t, Sample(nil, 10))
}

func TestInfer_OnlyFirstSampleSizeValuesCount(t *testing.T) {
	in := New(Options{SampleSize: 3, DetectionThreshold: 0.6})
	// The first three are names; the amounts after them are never read.
	got := in.Infer([]string{"Ahmed Ali", "Sara Ali", "Omar Ali", "1", "2", "3", "4", "5"})
	assert.Equal(t, []field.Field{field.CustomerName}, got.Sorted())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"150.000", "150", true},
		{"1,250.50", "1250.5", true},
		{"QAR 300", "300", true},
		{"-20", "-20", true},
		{"١٢٣٫٥", "123.5", true},
		{"1,25", "", false},
		{"12abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		d, ok := ParseAmount(tt.in)
		require.Equal(t, tt.ok, ok, "input %q", tt.in)
		if ok {
			assert.Equal(t, tt.want, d.String(), "input %q", tt.in)
		}
	}
}

type evenDigits struct{}

func (evenDigits) Name() string          { return "even" }
func (evenDigits) Fields() []field.Field { return []field.Field{field.VehiclePlate} }
func (evenDigits) Match(v string) bool   { return len(v)%2 == 0 }

func TestNew_CustomPredicates(t *testing.T) {
	in := New(Options{SampleSize: 10, DetectionThreshold: 0.6}, evenDigits{})
	assert.True(t, in.Infer([]string{"ab", "cdef", "gh"}).Has(field.VehiclePlate))
}
