package ports

// Column is one imported column: its raw header and the first non-empty
// values beneath it, in file order.
type Column struct {
	Header string   `json:"header"`
	Sample []string `json:"sample,omitempty"`
}

// ColumnSource reads the header row and a bounded value sample from an
// import file. sampleSize caps the number of non-empty values per column.
type ColumnSource interface {
	Columns(path string, sampleSize int) ([]Column, error)
}

// KeywordScanner finds which of a fixed set of keywords occur in a string.
// Implementations are built once and are safe for concurrent use.
type KeywordScanner interface {
	// Scan returns the indexes (into the construction keyword list) of every
	// keyword found in text, each at most once, in ascending order.
	Scan(text string) []int
}
