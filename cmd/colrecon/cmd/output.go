package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// useColor is set from --color in setup.
var useColor bool

func paint(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colorReset
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// formatResults renders one line per column:
//
//	⚡ 4 columns │ 3 resolved │ 1 need review
//	  Paid On          → payment_date      0.99  fuzzy
//	    alt: due_date 0.61
//	? Col 7            unresolved
func formatResults(results []field.MatchResult) string {
	width := 0
	unresolved := 0
	for _, r := range results {
		width = max(width, len([]rune(r.OriginalHeader)))
		if !r.Resolved() {
			unresolved++
		}
	}

	var sb strings.Builder
	sb.WriteString(paint(colorBold, fmt.Sprintf("⚡ %d columns", len(results))))
	sb.WriteString(fmt.Sprintf(" │ %d resolved │ %d need review\n", len(results)-unresolved, unresolved))

	for _, r := range results {
		header := padRight(r.OriginalHeader, width)
		if !r.Resolved() {
			sb.WriteString(fmt.Sprintf("%s %s  %s\n", paint(colorYellow, "?"), header, paint(colorGray, "unresolved")))
			continue
		}
		mark := " "
		if r.Method == field.MethodSemantic {
			// Semantic guesses are low confidence; flag for review too.
			mark = paint(colorYellow, "~")
		}
		sb.WriteString(fmt.Sprintf("%s %s  → %s  %.2f  %s\n",
			mark, header, paint(colorCyan, padRight(r.BestMatch, 18)), r.Confidence, paint(colorGray, string(r.Method))))
		for _, alt := range r.Alternatives {
			sb.WriteString(fmt.Sprintf("    %s %s %.2f\n", paint(colorGray, "alt:"), alt.Field, alt.Confidence))
		}
	}
	return sb.String()
}

// formatRecords renders learned mappings, newest first.
func formatRecords(tenant string, recs []ports.MappingRecord) string {
	var sb strings.Builder
	sb.WriteString(paint(colorBold, fmt.Sprintf("⚡ %d learned mappings", len(recs))))
	sb.WriteString(fmt.Sprintf(" │ tenant %s\n", tenant))
	for _, r := range recs {
		sb.WriteString(fmt.Sprintf("  %s  %s → %s  %.2f  %s\n",
			paint(colorGray, r.CreatedAt.Format(time.DateTime)),
			r.OriginalHeader, paint(colorCyan, r.Field), r.Confidence, paint(colorGray, r.Source)))
	}
	return sb.String()
}

// formatFields renders canonical fields with alias counts.
func formatFields(counts map[field.Field]int) string {
	var sb strings.Builder
	total := 0
	for _, n := range counts {
		total += n
	}
	sb.WriteString(paint(colorBold, fmt.Sprintf("⚡ %d fields", len(field.All()))))
	sb.WriteString(fmt.Sprintf(" │ %d aliases\n", total))
	for _, f := range field.All() {
		sb.WriteString(fmt.Sprintf("  %s %s\n", padRight(string(f), 20), paint(colorGray, fmt.Sprintf("%d aliases", counts[f]))))
	}
	return sb.String()
}

func padRight(s string, n int) string {
	if pad := n - len([]rune(s)); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
