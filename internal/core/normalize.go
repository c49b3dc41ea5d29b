package core

// normalize.go implements the shared normalization algorithm: raw rows
// plus user field mappings in, typed records plus accumulated transform
// errors out. Normalization never fails on data quality; every problem
// is recorded as a TransformError and processing continues.

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultPreviewRows bounds Preview when the caller passes no limit.
const DefaultPreviewRows = 10

// Normalize converts raw rows into Records by applying each field
// mapping in order. Field-level transform failures are recorded and do
// not abort the row; a structurally unusable row (nil) is recorded and
// skipped. Required fields left unset after all mappings get defaults:
// a generated id, the "unassigned" owner, the "unknown" status, and the
// ingestion time for CreatedAt/UpdatedAt.
func Normalize(rows []RawRow, mappings []FieldMapping, src Source) NormalizeResult {
	now := time.Now().UTC()

	result := NormalizeResult{
		Records:        make([]Record, 0, len(rows)),
		StageEvents:    []StageEvent{},
		Actors:         []Actor{},
		UnmappedFields: []string{},
		Errors:         []TransformError{},
	}

	seenOwners := make(map[string]bool)

	for i, row := range rows {
		if row == nil {
			result.Errors = append(result.Errors, TransformError{
				Row:     i,
				Message: "row is not an object",
			})
			continue
		}

		rec, errs := buildRecord(i, row, mappings, src, now)
		result.Errors = append(result.Errors, errs...)
		result.Records = append(result.Records, rec)

		if !seenOwners[rec.OwnerID] {
			seenOwners[rec.OwnerID] = true
			result.Actors = append(result.Actors, Actor{
				ID:        rec.OwnerID,
				Name:      rec.OwnerID,
				Meta:      map[string]any{},
				CreatedAt: now,
			})
		}
	}

	result.UnmappedFields = unmappedFields(rows, mappings)
	return result
}

// Preview runs the same normalization over at most limit rows (default
// DefaultPreviewRows). Results are identical to a full run restricted
// to that many rows, which is what makes it trustworthy as a preview.
func Preview(rows []RawRow, mappings []FieldMapping, src Source, limit int) NormalizeResult {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return Normalize(rows, mappings, src)
}

// buildRecord applies every mapping to one row. Each transform failure
// is collected individually; the record is still emitted with defaults
// filling whatever the mappings could not supply.
func buildRecord(rowIdx int, row RawRow, mappings []FieldMapping, src Source, now time.Time) (Record, []TransformError) {
	rec := Record{
		Meta: RecordMeta{
			Source:     src.Name,
			SourceType: src.Type,
		},
	}
	var errs []TransformError

	for _, m := range mappings {
		raw, ok := PathValue(row, m.SourceField)
		if !ok || isEmpty(raw) {
			continue
		}

		val, err := applyTransform(raw, m.Transform)
		if err != nil {
			errs = append(errs, TransformError{
				Row:     rowIdx,
				Field:   m.SourceField,
				Value:   raw,
				Message: err.Error(),
			})
			continue
		}

		assignField(&rec, m.TargetField, val)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OwnerID == "" {
		rec.OwnerID = UnassignedOwner
	}
	if rec.Status == "" {
		rec.Status = UnknownStatus
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	return rec, errs
}

// assignField routes a transformed value to the matching Record field.
// Unrecognized targets become custom fields.
func assignField(rec *Record, target string, val any) {
	switch target {
	case TargetID:
		rec.ID = stringValue(val)
	case TargetExternalID:
		rec.ExternalID = stringValue(val)
	case TargetOwnerID:
		rec.OwnerID = stringValue(val)
	case TargetValue:
		rec.Value = ParseNumber(val)
	case TargetStatus:
		rec.Status = stringValue(val)
	case TargetCreatedAt:
		if t := ParseDate(val); t != nil {
			rec.CreatedAt = *t
		}
	case TargetUpdatedAt:
		if t := ParseDate(val); t != nil {
			rec.UpdatedAt = *t
		}
	case TargetClosedAt:
		rec.ClosedAt = ParseDate(val)
	default:
		if rec.Meta.CustomFields == nil {
			rec.Meta.CustomFields = make(map[string]any)
		}
		rec.Meta.CustomFields[target] = val
	}
}

// applyTransform runs the mapping's transform against a raw value.
func applyTransform(raw any, t *Transform) (any, error) {
	if t == nil {
		return raw, nil
	}

	switch t.Kind {
	case "", TransformDirect:
		return raw, nil

	case TransformDate:
		if t.Layout != "" {
			if s, ok := raw.(string); ok {
				if parsed, err := time.Parse(t.Layout, s); err == nil {
					return parsed, nil
				}
			}
		}
		parsed := ParseDate(raw)
		if parsed == nil {
			return nil, fmt.Errorf("cannot parse %q as a date", fmt.Sprint(raw))
		}
		return *parsed, nil

	case TransformNumber:
		f := ParseNumber(raw)
		if t.Precision > 0 {
			shift := math.Pow(10, float64(t.Precision))
			f = math.Round(f*shift) / shift
		}
		return f, nil

	case TransformLookup:
		key := fmt.Sprint(raw)
		mapped, ok := t.Lookup[key]
		if !ok {
			return nil, fmt.Errorf("no lookup entry for %q", key)
		}
		return mapped, nil

	case TransformFormula:
		return nil, fmt.Errorf("formula transforms are not implemented")

	default:
		return nil, fmt.Errorf("unknown transform kind %q", t.Kind)
	}
}

// unmappedFields is the set difference of all raw field names minus the
// mapped source fields, sorted for stable output. Callers surface it so
// the user can be prompted to map more columns.
func unmappedFields(rows []RawRow, mappings []FieldMapping) []string {
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		mapped[m.SourceField] = true
	}

	seen := make(map[string]bool)
	unmapped := []string{}
	for _, row := range rows {
		for name := range row {
			if seen[name] || mapped[name] {
				continue
			}
			seen[name] = true
			unmapped = append(unmapped, name)
		}
	}

	sort.Strings(unmapped)
	return unmapped
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
