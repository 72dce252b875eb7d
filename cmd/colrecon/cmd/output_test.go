package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/ports"
)

// =============================================================================
// Formatters (color off)
// =============================================================================

func TestFormatResults(t *testing.T) {
	useColor = false
	out := formatResults([]field.MatchResult{
		{OriginalHeader: "Paid On", BestMatch: "payment_date", Confidence: 0.99, Method: field.MethodFuzzy,
			Alternatives: []field.Alternative{{Field: field.DueDate, Confidence: 0.61}}},
		{OriginalHeader: "Remarks", BestMatch: "notes", Confidence: 0.3, Method: field.MethodSemantic},
		field.Unresolved("Col 7"),
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "⚡ 3 columns │ 2 resolved │ 1 need review", lines[0])
	assert.Contains(t, lines[1], "→ payment_date")
	assert.Contains(t, lines[1], "0.99  fuzzy")
	assert.Equal(t, "    alt: due_date 0.61", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "~ Remarks"))
	assert.Equal(t, "? Col 7    unresolved", lines[4])
}

func TestFormatResults_NoANSIWithoutColor(t *testing.T) {
	useColor = false
	out := formatResults([]field.MatchResult{field.Unresolved("x")})
	assert.NotContains(t, out, "\033[")

	useColor = true
	defer func() { useColor = false }()
	out = formatResults([]field.MatchResult{field.Unresolved("x")})
	assert.Contains(t, out, colorYellow)
}

func TestFormatRecords(t *testing.T) {
	useColor = false
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	out := formatRecords("acme", []ports.MappingRecord{
		{OriginalHeader: "Client Ref", Field: "reference_number", Confidence: 0.95, Source: "user", CreatedAt: at},
	})
	assert.Contains(t, out, "⚡ 1 learned mappings │ tenant acme")
	assert.Contains(t, out, "2026-03-01 09:30:00  Client Ref → reference_number  0.95  user")
}

func TestFormatFields(t *testing.T) {
	useColor = false
	out := formatFields(map[field.Field]int{field.PaymentDate: 4, field.Amount: 6})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(field.All())+1)
	assert.Equal(t, fmt.Sprintf("⚡ %d fields │ 10 aliases", len(field.All())), lines[0])
	assert.Contains(t, lines[1], "payment_date")
	assert.Contains(t, lines[1], "4 aliases")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "تاريخ  ", padRight("تاريخ", 7))
	assert.Equal(t, "longer", padRight("longer", 3))
}

func TestWriteJSON_KeepsArabic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, field.Unresolved("المبلغ <x>")))
	assert.Contains(t, buf.String(), `"original_header": "المبلغ <x>"`)
}
