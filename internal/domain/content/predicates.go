package content

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/normalize"
	"github.com/shopspring/decimal"
)

// foldDigits rewrites Arabic-Indic and Persian digits, and the Arabic decimal
// and thousands separators, to their ASCII forms.
func foldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r == '٫':
			return '.'
		case r == '٬':
			return ','
		}
		return r
	}, s)
}

// =============================================================================
// Payment method
// =============================================================================

var paymentMethodWords = []string{
	"cash", "bank transfer", "transfer", "wire", "wire transfer",
	"cheque", "check", "card", "credit card", "debit card",
	"visa", "mastercard", "mada", "knet", "pos", "online",
	"نقدا", "نقدي", "نقد", "كاش",
	"تحويل", "تحويل بنكي", "حوالة", "حوالة بنكية",
	"شيك", "بطاقة", "بطاقة ائتمان", "مدى", "فيزا",
}

type paymentMethod struct {
	words map[string]struct{}
}

func newPaymentMethod() paymentMethod {
	p := paymentMethod{words: make(map[string]struct{}, len(paymentMethodWords))}
	for _, w := range paymentMethodWords {
		p.words[normalize.Header(w)] = struct{}{}
	}
	return p
}

func (paymentMethod) Name() string          { return "payment_method" }
func (paymentMethod) Fields() []field.Field { return []field.Field{field.PaymentMethod} }

func (p paymentMethod) Match(v string) bool {
	_, ok := p.words[normalize.Header(v)]
	return ok
}

// =============================================================================
// Contract number: letter prefix then digit groups (LTO2024-0012, AGR/2023/15)
// =============================================================================

var contractRe = regexp.MustCompile(`(?i)^[a-z]{2,6}[-/]?\d{2,}(?:[-/]\d+)*$`)

type contractNumber struct{}

func (contractNumber) Name() string          { return "contract_number" }
func (contractNumber) Fields() []field.Field { return []field.Field{field.ContractNumber} }
func (contractNumber) Match(v string) bool   { return contractRe.MatchString(foldDigits(v)) }

// =============================================================================
// Date: D/M/Y or Y-M-D, optional time of day
// =============================================================================

var (
	dmyRe = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?$`)
	ymdRe = regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?$`)
)

type date struct{}

func (date) Name() string          { return "date" }
func (date) Fields() []field.Field { return []field.Field{field.PaymentDate, field.DueDate} }

func (date) Match(v string) bool {
	v = foldDigits(v)
	if m := ymdRe.FindStringSubmatch(v); m != nil {
		return inRange(m[2], 1, 12) && inRange(m[3], 1, 31)
	}
	if m := dmyRe.FindStringSubmatch(v); m != nil {
		// Day and month order varies by source, so accept either.
		return inRange(m[1], 1, 31) && inRange(m[2], 1, 31) &&
			(inRange(m[1], 1, 12) || inRange(m[2], 1, 12))
	}
	return false
}

func inRange(s string, lo, hi int) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= lo && n <= hi
}

// =============================================================================
// Phone: optional +, digits with spaces, dashes or parentheses
// =============================================================================

// A bare digit run is only a phone number with a trunk prefix ("0...") or in
// the 8-digit local mobile form (first digit 3-7). Other bare runs are left
// to the amount predicate, so "1500000" is an amount.

type phone struct{}

func (phone) Name() string          { return "phone" }
func (phone) Fields() []field.Field { return []field.Field{field.CustomerPhone} }

func (phone) Match(v string) bool {
	v = foldDigits(v)
	digits, marked := 0, false
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
			marked = true
		case r == ' ' || r == '-' || r == '(' || r == ')':
			marked = true
		default:
			return false
		}
	}
	if digits < 7 || digits > 15 {
		return false
	}
	return marked || v[0] == '0' || (digits == 8 && v[0] >= '3' && v[0] <= '7')
}

// =============================================================================
// Amount: plain or grouped decimal, optional currency marker
// =============================================================================

var (
	amountRe        = regexp.MustCompile(`^[+-]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)
	currencyMarkers = []string{"qar", "sar", "aed", "kwd", "omr", "bhd", "usd", "eur", "ر.ق", "ر.س", "ريال", "$"}
)

// ParseAmount parses a currency-style value ("1,250.50", "QAR 300", "٧٥٫٥").
func ParseAmount(v string) (decimal.Decimal, bool) {
	v = strings.ToLower(foldDigits(strings.TrimSpace(v)))
	for _, c := range currencyMarkers {
		v = strings.ReplaceAll(v, c, "")
	}
	v = strings.TrimSpace(v)
	if !amountRe.MatchString(v) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

type amount struct{}

func (amount) Name() string          { return "amount" }
func (amount) Fields() []field.Field { return []field.Field{field.Amount} }

func (amount) Match(v string) bool {
	_, ok := ParseAmount(v)
	return ok
}

// =============================================================================
// Name: 1-5 words of letters, 3-60 characters
// =============================================================================

type name struct{}

func (name) Name() string          { return "name" }
func (name) Fields() []field.Field { return []field.Field{field.CustomerName} }

func (name) Match(v string) bool {
	if n := utf8.RuneCountInString(v); n < 3 || n > 60 {
		return false
	}
	words := strings.Fields(v)
	if len(words) == 0 || len(words) > 5 {
		return false
	}
	for _, w := range words {
		letters := 0
		for _, r := range w {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.Is(unicode.Mn, r), r == '\'', r == '-', r == '.':
			default:
				return false
			}
		}
		if letters == 0 {
			return false
		}
	}
	return true
}

// =============================================================================
// Reference: 5-15 alphanumerics with at least one digit
// =============================================================================

var referenceRe = regexp.MustCompile(`^[A-Za-z0-9]{5,15}$`)

type reference struct{}

func (reference) Name() string          { return "reference" }
func (reference) Fields() []field.Field { return []field.Field{field.ReferenceNumber} }

func (reference) Match(v string) bool {
	v = foldDigits(v)
	return referenceRe.MatchString(v) && strings.ContainsAny(v, "0123456789")
}
