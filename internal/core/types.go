// Package core normalizes loosely-typed tabular rows into typed records.
// This package has no HTTP or storage dependencies and can be driven by
// any source connector that implements the Adapter interface.
package core

import "time"

// Sentinel values applied when a mapping does not supply a required field.
const (
	UnassignedOwner = "unassigned"
	UnknownStatus   = "unknown"
)

// SourceType tags where a dataset came from.
type SourceType string

const (
	SourceCSV   SourceType = "csv"
	SourceSheet SourceType = "sheet"
	SourceCRM   SourceType = "crm"
)

// RawRow is a single loosely-typed row produced by a source adapter.
// Values are strings for text sources and string/float64/bool for JSON
// sources; the normalization transforms handle both.
type RawRow map[string]any

// Source identifies the origin of a batch of raw rows.
type Source struct {
	Name string     `json:"name"`
	Type SourceType `json:"type"`
}

// RecordMeta carries provenance and any fields that were mapped to
// custom (non-core) targets.
type RecordMeta struct {
	Source       string         `json:"source"`
	SourceType   SourceType     `json:"sourceType"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// Record is the canonical normalized unit of analysis (a deal, order,
// lead, ticket, ...). Every Record has a non-empty ID, OwnerID and
// Status, and valid CreatedAt/UpdatedAt timestamps; Normalize applies
// defaults when a mapping is missing or fails.
type Record struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"externalId,omitempty"`
	OwnerID    string     `json:"ownerId"`
	Value      float64    `json:"value"`
	Status     string     `json:"status"`
	Meta       RecordMeta `json:"metadata"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

/// Actor is derived during normalization: one per distinct OwnerID.
// The display name initially equals the id; enrichment happens elsewhere.
type Actor struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Meta      map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// StageEvent records a transition of a Record between pipeline stages.
// FromStage is nil for the initial creation event. DurationMs is the
// time spent in the previous stage, in milliseconds, when known.
type StageEvent struct {
	RecordID   string     `json:"recordId"`
	FromStage  *string    `json:"fromStage"`
	ToStage    string     `json:"toStage"`
	Timestamp  time.Time  `json:"timestamp"`
	DurationMs *float64   `json:"durationInPreviousStage,omitempty"`
}

// Core target fields a mapping may assign to. Any other target name
// lands in RecordMeta.CustomFields under that name.
const (
	TargetID         = "id"
	TargetExternalID = "externalId"
	TargetOwnerID    = "ownerId"
	TargetValue      = "value"
	TargetStatus     = "status"
	TargetCreatedAt  = "createdAt"
	TargetUpdatedAt  = "updatedAt"
	TargetClosedAt   = "closedAt"
)

// TransformKind selects how a mapped value is converted.
type TransformKind string

const (
	// TransformDirect passes the raw value through unchanged.
	TransformDirect TransformKind = "direct"
	// TransformDate parses the value as a date, optionally with a
	// layout hint.
	TransformDate TransformKind = "date"
	// TransformNumber parses the value as a number, optionally rounded
	// to a decimal precision.
	TransformNumber TransformKind = "number"
	// TransformLookup replaces the value via a lookup table.
	TransformLookup TransformKind = "lookup"
	// TransformFormula is a declared extension point; applying it is a
	// transform error until expression evaluation lands.
	TransformFormula TransformKind = "formula"
)

// Transform describes an optional conversion applied to a mapped value.
type Transform struct {
	Kind      TransformKind     `json:"kind"`
	Layout    string            `json:"layout,omitempty"`    // date layout hint
	Precision int               `json:"precision,omitempty"` // number decimal places
	Lookup    map[string]any    `json:"lookup,omitempty"`
	Expr      string            `json:"expr,omitempty"` // formula, unsupported
}

// FieldMapping binds a raw source field (dot-path capable) to a Record
// target field or a custom field name.
type FieldMapping struct {
	SourceField string     `json:"sourceField"`
	TargetField string     `json:"targetField"`
	Transform   *Transform `json:"transform,omitempty"`
}

// TransformError is a recoverable data-quality problem encountered
// while normalizing one field of one row. Accumulated, never thrown.
type TransformError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// NormalizeResult is the full output of one normalization pass.
type NormalizeResult struct {
	Records        []Record         `json:"records"`
	StageEvents    []StageEvent     `json:"stageEvents"`
	Actors         []Actor          `json:"actors"`
	UnmappedFields []string         `json:"unmappedFields"`
	Errors         []TransformError `json:"transformErrors"`
}

// FieldType classifies a detected source field.
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldString  FieldType = "string"
	FieldMixed   FieldType = "mixed"
)

// FieldInfo describes one detected source field.
type FieldInfo struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Nullable bool      `json:"nullable"`
	Sample   any       `json:"sample,omitempty"`
}

// MappingSuggestion proposes a target field for a detected source field.
type MappingSuggestion struct {
	SourceField string  `json:"sourceField"`
	TargetField string  `json:"targetField"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// SchemaDetection bundles detected fields, mapping suggestions, and an
// overall confidence that the required targets are covered.
type SchemaDetection struct {
	Fields      []FieldInfo         `json:"fields"`
	Suggestions []MappingSuggestion `json:"suggestions"`
	Confidence  float64             `json:"confidence"`
}

// Adapter is the per-source-format capability contract. The shared
// normalization, validation and schema-detection algorithms live in
// this package as free functions over the adapter's output.
type Adapter interface {
	// ExtractRows parses raw source bytes into loosely-typed rows.
	ExtractRows(data []byte) ([]RawRow, error)
	// ExtractFieldNames returns the source's field names in a stable,
	// source-defined order (header order for CSV, sorted union of keys
	// for schemaless sources).
	ExtractFieldNames(rows []RawRow) []string
	// DetectFieldTypes classifies each field by sampling rows.
	DetectFieldTypes(rows []RawRow) []FieldInfo
}
