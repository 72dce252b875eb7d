package field

// Method records which resolution stage produced a MatchResult.
type Method string

const (
	MethodExact           Method = "exact"
	MethodHistorical      Method = "historical"
	MethodFuzzy           Method = "fuzzy"
	MethodContentAnalysis Method = "content_analysis"
	MethodSemantic        Method = "semantic"
)

// Alternative is a runner-up candidate offered to the reviewer.
type Alternative struct {
	Field      Field   `json:"field"`
	Confidence float64 `json:"confidence"`
}

// MatchResult is the outcome of resolving one header. It is always well-formed:
// an unresolved header carries BestMatch = OriginalHeader, Confidence 0 and
// MethodSemantic.
type MatchResult struct {
	OriginalHeader string        `json:"original_header"`
	BestMatch      string        `json:"best_match"`
	Confidence     float64       `json:"confidence"`
	Method         Method        `json:"method"`
	Alternatives   []Alternative `json:"alternatives"`
}

// Unresolved returns the result for a header nothing could resolve.
func Unresolved(header string) MatchResult {
	return MatchResult{
		OriginalHeader: header,
		BestMatch:      header,
		Confidence:     0,
		Method:         MethodSemantic,
		Alternatives:   []Alternative{},
	}
}

// Resolved reports whether the result maps onto a canonical field.
func (r MatchResult) Resolved() bool {
	return r.Confidence > 0 && Field(r.BestMatch).Valid()
}

// Field returns the canonical field of a resolved result.
func (r MatchResult) Field() (Field, bool) {
	if !r.Resolved() {
		return "", false
	}
	return Field(r.BestMatch), true
}
