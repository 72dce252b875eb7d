// Package field defines the closed set of canonical business fields that
// imported column headers resolve to, and the result shape every resolution
// produces. Pure Go, no external dependencies.
package field

import "sort"

// Field is one canonical business column.
type Field string

// Canonical fields. Declaration order is the order returned by All().
const (
	PaymentDate      Field = "payment_date"
	Amount           Field = "amount"
	AmountPaid       Field = "amount_paid"
	ContractNumber   Field = "contract_number"
	AgreementNumber  Field = "agreement_number"
	CustomerName     Field = "customer_name"
	CustomerPhone    Field = "customer_phone"
	CustomerIDNumber Field = "customer_id_number"
	PaymentMethod    Field = "payment_method"
	ReferenceNumber  Field = "reference_number"
	Notes            Field = "notes"
	LateFineAmount   Field = "late_fine_amount"
	DueDate          Field = "due_date"
	PaymentStatus    Field = "payment_status"
	StartDate        Field = "start_date"
	EndDate          Field = "end_date"
	MonthlyAmount    Field = "monthly_amount"
	ContractType     Field = "contract_type"
	VehiclePlate     Field = "vehicle_plate"
)

var all = []Field{
	PaymentDate,
	Amount,
	AmountPaid,
	ContractNumber,
	AgreementNumber,
	CustomerName,
	CustomerPhone,
	CustomerIDNumber,
	PaymentMethod,
	ReferenceNumber,
	Notes,
	LateFineAmount,
	DueDate,
	PaymentStatus,
	StartDate,
	EndDate,
	MonthlyAmount,
	ContractType,
	VehiclePlate,
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(all))
	for _, f := range all {
		m[string(f)] = f
	}
	return m
}()

// All returns every canonical field in declaration order. The slice is a copy.
func All() []Field {
	out := make([]Field, len(all))
	copy(out, all)
	return out
}

// Parse maps a field name to its Field. Returns false for names outside the set.
func Parse(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Valid reports whether f is a member of the canonical set.
func (f Field) Valid() bool {
	_, ok := byName[string(f)]
	return ok
}

func (f Field) String() string {
	return string(f)
}

// Set is an unordered collection of fields (e.g. detected content types).
type Set map[Field]struct{}

// NewSet builds a Set from the given fields.
func NewSet(fields ...Field) Set {
	s := make(Set, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether f is in the set. Safe on a nil Set.
func (s Set) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Add inserts f.
func (s Set) Add(f Field) {
	s[f] = struct{}{}
}

// Sorted returns the members ordered by name, for deterministic output.
func (s Set) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
