package core

import "strings"

// FieldValue resolves a (dot-path capable) field reference against a
// Record. Core fields are addressed by their canonical names; anything
// else is looked up in the custom fields, so metric formulas and
// filters can reference unmapped source columns directly.
func FieldValue(rec Record, path string) (any, bool) {
	switch path {
	case TargetID:
		return rec.ID, true
	case TargetExternalID:
		if rec.ExternalID == "" {
			return nil, false
		}
		return rec.ExternalID, true
	case TargetOwnerID:
		return rec.OwnerID, true
	case TargetValue:
		return rec.Value, true
	case TargetStatus:
		return rec.Status, true
	case TargetCreatedAt:
		return rec.CreatedAt, true
	case TargetUpdatedAt:
		return rec.UpdatedAt, true
	case TargetClosedAt:
		if rec.ClosedAt == nil {
			return nil, false
		}
		return *rec.ClosedAt, true
	case "metadata.source":
		return rec.Meta.Source, true
	case "metadata.sourceType":
		return string(rec.Meta.SourceType), true
	}

	if rec.Meta.CustomFields == nil {
		return nil, false
	}

	key := strings.TrimPrefix(path, "metadata.customFields.")
	if v, ok := rec.Meta.CustomFields[key]; ok {
		return v, true
	}
	if v, ok := PathValue(RawRow(rec.Meta.CustomFields), key); ok {
		return v, true
	}
	return nil, false
}
