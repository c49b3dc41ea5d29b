package connector

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dealview/dealview/internal/core"
)

// RowsAdapter handles generic REST CRM exports: a JSON array of flat or
// nested objects. JSON objects carry no key order, so field names come
// back as the sorted union of keys across rows.
type RowsAdapter struct{}

// NewRows returns an adapter for JSON row arrays.
func NewRows() *RowsAdapter {
	return &RowsAdapter{}
}

// ExtractRows decodes a JSON array of objects. Anything else is a
// structural failure and propagates as an error.
func (RowsAdapter) ExtractRows(data []byte) ([]core.RawRow, error) {
	var rows []core.RawRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// ExtractFieldNames returns the sorted union of top-level keys.
func (RowsAdapter) ExtractFieldNames(rows []core.RawRow) []string {
	return sortedFieldUnion(rows)
}

// DetectFieldTypes delegates to the shared inference algorithm.
func (a RowsAdapter) DetectFieldTypes(rows []core.RawRow) []core.FieldInfo {
	return core.DetectFieldTypes(rows, a.ExtractFieldNames(rows))
}

func sortedFieldUnion(rows []core.RawRow) []string {
	seen := make(map[string]bool)
	fields := []string{}
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
	}
	sort.Strings(fields)
	return fields
}
