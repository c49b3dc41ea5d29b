package core

import (
	"testing"
)

// ----------------------------------------------------------------------------
// DetectFieldTypes Tests
// ----------------------------------------------------------------------------

func TestDetectFieldTypes(t *testing.T) {
	rows := []RawRow{
		{"amount": "100", "when": "2024-01-05", "active": "yes", "note": "hello", "mix": "100", "sparse": "x"},
		{"amount": "250.5", "when": "2024-02-10", "active": "no", "note": "world", "mix": "not a number", "sparse": ""},
		{"amount": "0", "when": "2024-03-15", "active": "true", "note": "!", "mix": "300"},
	}
	fields := []string{"amount", "when", "active", "note", "mix", "sparse"}

	infos := DetectFieldTypes(rows, fields)
	byName := make(map[string]FieldInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	tests := []struct {
		field        string
		wantType     FieldType
		wantNullable bool
	}{
		{"amount", FieldNumber, false},
		{"when", FieldDate, false},
		{"active", FieldBoolean, false},
		{"note", FieldString, false},
		{"mix", FieldMixed, false},
		{"sparse", FieldString, true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			info, ok := byName[tt.field]
			if !ok {
				t.Fatalf("field %q missing from detection", tt.field)
			}
			if info.Type != tt.wantType {
				t.Errorf("type = %q, want %q", info.Type, tt.wantType)
			}
			if info.Nullable != tt.wantNullable {
				t.Errorf("nullable = %v, want %v", info.Nullable, tt.wantNullable)
			}
		})
	}
}

func TestDetectFieldTypes_SampleBound(t *testing.T) {
	// Rows past the sample window must not influence classification.
	rows := make([]RawRow, detectSampleRows+10)
	for i := range rows {
		rows[i] = RawRow{"v": "1"}
	}
	for i := detectSampleRows; i < len(rows); i++ {
		rows[i] = RawRow{"v": "definitely not numeric"}
	}

	infos := DetectFieldTypes(rows, []string{"v"})
	if infos[0].Type != FieldNumber {
		t.Errorf("type = %q, want number (sample bounded at %d rows)", infos[0].Type, detectSampleRows)
	}
}

// ----------------------------------------------------------------------------
// SuggestMappings Tests
// ----------------------------------------------------------------------------

func TestSuggestMappings(t *testing.T) {
	tests := []struct {
		field      string
		wantTarget string
	}{
		{"deal_id", TargetID},
		{"uuid", TargetID},
		{"owner", TargetOwnerID},
		{"assigned_to", TargetOwnerID},
		{"sales_rep", TargetOwnerID},
		{"amount", TargetValue},
		{"total_price", TargetValue},
		{"revenue", TargetValue},
		{"stage", TargetStatus},
		{"deal_state", TargetStatus},
		{"created", TargetCreatedAt},
		{"date_added", TargetCreatedAt},
		{"last_updated", TargetUpdatedAt},
		{"modified", TargetUpdatedAt},
		{"closed_date", TargetClosedAt},
		{"completed_at", TargetClosedAt},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got := SuggestMappings([]string{tt.field})
			if len(got) != 1 {
				t.Fatalf("suggestions = %d, want 1", len(got))
			}
			if got[0].TargetField != tt.wantTarget {
				t.Errorf("target = %q, want %q", got[0].TargetField, tt.wantTarget)
			}
			if got[0].Confidence != SuggestionConfidence {
				t.Errorf("confidence = %v, want %v", got[0].Confidence, SuggestionConfidence)
			}
			if got[0].Reason == "" {
				t.Error("suggestion has no reason")
			}
		})
	}
}

func TestSuggestMappings_NoMatch(t *testing.T) {
	got := SuggestMappings([]string{"notes", "color"})
	if len(got) != 0 {
		t.Errorf("suggestions = %v, want none", got)
	}
}

func TestSuggestMappings_FirstPatternWins(t *testing.T) {
	// "owner_id" matches both the id pattern and the owner pattern; the
	// id pattern is listed first and wins.
	got := SuggestMappings([]string{"owner_id"})
	if len(got) != 1 || got[0].TargetField != TargetID {
		t.Fatalf("suggestions = %+v, want single id suggestion", got)
	}
}

// ----------------------------------------------------------------------------
// DetectSchema Tests
// ----------------------------------------------------------------------------

func TestDetectSchema_Confidence(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   float64
	}{
		{name: "both required covered", fields: []string{"deal_id", "stage", "notes"}, want: 1.0},
		{name: "only id covered", fields: []string{"deal_id", "notes"}, want: 0.5},
		{name: "only status covered", fields: []string{"phase", "notes"}, want: 0.5},
		{name: "nothing covered", fields: []string{"notes", "color"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := DetectSchema(nil, tt.fields)
			if det.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", det.Confidence, tt.want)
			}
		})
	}
}

func TestDetectSchema_RoundTrip(t *testing.T) {
	// Feeding detection's suggestions back into Normalize must not do
	// worse than an equivalent hand-written mapping.
	rows := dealRows()
	fields := []string{"deal_id", "owner", "amount", "stage", "created", "region"}

	det := DetectSchema(rows, fields)
	auto := Normalize(rows, MappingsFromSuggestions(det.Suggestions), testSource)
	hand := Normalize(rows, dealMappings(), testSource)

	autoValid := Validate(auto).ValidRecords
	handValid := Validate(hand).ValidRecords
	if autoValid < handValid {
		t.Errorf("suggested mappings produced %d valid records, hand mapping %d", autoValid, handValid)
	}
}
