// Package sheet implements ports.ColumnSource for CSV and XLSX import files.
// Only the header row and the first non-empty values of each column are kept;
// the rest of the file is never buffered.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/corey/colrecon/internal/ports"
)

// ErrNoHeader is returned for files without a header row.
var ErrNoHeader = errors.New("file has no header row")

// ErrUnsupportedFormat is returned for extensions other than .csv, .tsv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// utf8BOM is stripped from the first header; Excel writes it on CSV export.
const utf8BOM = "\ufeff"

// Reader reads columns from CSV or XLSX files, chosen by file extension.
type Reader struct {
	// Sheet is the XLSX sheet to read. Empty means the first sheet.
	Sheet string
}

var _ ports.ColumnSource = (*Reader)(nil)

// Columns reads the header row of path and up to sampleSize non-empty values
// per column.
func (r *Reader) Columns(path string, sampleSize int) ([]ports.Column, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readDelimited(path, ',', sampleSize)
	case ".tsv":
		return readDelimited(path, '\t', sampleSize)
	case ".xlsx", ".xlsm":
		return r.readXLSX(path, sampleSize)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

func readDelimited(path string, comma rune, sampleSize int) ([]ports.Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cols, err := ReadCSV(f, comma, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cols, nil
}

// ReadCSV reads delimited text from rd. Ragged rows are allowed; a cell past
// the header width is ignored.
func ReadCSV(rd io.Reader, comma rune, sampleSize int) ([]ports.Column, error) {
	cr := csv.NewReader(rd)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	c := newCollector(header, sampleSize)

	for !c.full() {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		c.add(row)
	}
	return c.columns(), nil
}

func (r *Reader) readXLSX(path string, sampleSize int) ([]ports.Column, error) {
	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer xl.Close()

	name := r.Sheet
	if name == "" {
		name = xl.GetSheetName(0)
	}

	// Streaming row iterator; large workbooks are not loaded whole.
	rows, err := xl.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	defer rows.Close()

	var c *collector
	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if c == nil {
			// Leading blank rows are common above the real header.
			if isEmptyRow(row) {
				continue
			}
			c = newCollector(row, sampleSize)
			continue
		}
		c.add(row)
		if c.full() {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	if c == nil {
		return nil, fmt.Errorf("sheet %q: %w", name, ErrNoHeader)
	}
	return c.columns(), nil
}

// collector accumulates per-column samples until every column is full.
type collector struct {
	cols   []ports.Column
	size   int
	filled int
}

func newCollector(header []string, size int) *collector {
	cols := make([]ports.Column, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		cols[i].Header = strings.TrimSpace(h)
	}
	return &collector{cols: cols, size: max(size, 0)}
}

func (c *collector) add(row []string) {
	for i := 0; i < len(row) && i < len(c.cols); i++ {
		col := &c.cols[i]
		if len(col.Sample) >= c.size {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		col.Sample = append(col.Sample, v)
		if len(col.Sample) == c.size {
			c.filled++
		}
	}
}

func (c *collector) full() bool {
	return c.size == 0 || c.filled == len(c.cols)
}

func (c *collector) columns() []ports.Column { return c.cols }

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
