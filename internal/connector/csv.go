// Package connector implements the per-source-format adapters that
// feed the shared normalization core: CSV files and generic JSON row
// exports. Connectors only extract loosely-typed rows; all typing and
// mapping happens in core.
package connector

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dealview/dealview/internal/core"
)

// CSVAdapter parses uploaded CSV bytes. The first row is the header;
// duplicate header names get positional suffixes so no column is lost.
// The adapter remembers the header order from the last ExtractRows call
// so field names come back in file order rather than map order.
type CSVAdapter struct {
	headers []string
}

// NewCSV returns a fresh CSV adapter.
func NewCSV() *CSVAdapter {
	return &CSVAdapter{}
}

// ExtractRows parses CSV bytes into raw rows keyed by header name.
// Input is UTF-8 sanitized first; cells are cleaned of Excel formula
// prefixes, stray quotes and surrounding whitespace. Short rows leave
// trailing columns unset rather than erroring.
func (a *CSVAdapter) ExtractRows(data []byte) ([]core.RawRow, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	a.headers = headerNames(records[0])

	rows := make([]core.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(core.RawRow, len(a.headers))
		for i, name := range a.headers {
			if i < len(rec) {
				row[name] = cleanCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExtractFieldNames returns the header names in file order when a file
// has been parsed, falling back to the sorted key union otherwise.
func (a *CSVAdapter) ExtractFieldNames(rows []core.RawRow) []string {
	if len(a.headers) > 0 {
		return a.headers
	}
	return sortedFieldUnion(rows)
}

// DetectFieldTypes delegates to the shared inference algorithm.
func (a *CSVAdapter) DetectFieldTypes(rows []core.RawRow) []core.FieldInfo {
	return core.DetectFieldTypes(rows, a.ExtractFieldNames(rows))
}

// headerNames cleans header cells and disambiguates duplicates with a
// positional suffix ("amount", "amount_2", ...).
func headerNames(header []string) []string {
	names := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := cleanCell(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		names = append(names, name)
	}
	return names
}

// cleanCell strips the artifacts spreadsheet exports leave behind:
// surrounding whitespace, Excel ="..." formula wrappers, and stray
// quote characters.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	s = strings.TrimPrefix(s, "\uFEFF")

	return strings.TrimSpace(s)
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement
// character so the CSV reader never chokes on legacy encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
