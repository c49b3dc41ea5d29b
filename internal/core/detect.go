package core

// detect.go implements schema detection: per-field type inference over
// a bounded sample, name-based mapping suggestions, and an overall
// confidence score. Suggestions feed straight back into Normalize as
// direct mappings, which is the zero-configuration ingestion path.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// detectSampleRows bounds how many rows type inference examines.
const detectSampleRows = 100

// SuggestionConfidence is the fixed confidence attached to name-based
// mapping suggestions. Pattern matching on a header name is a decent
// hint but never proof.
const SuggestionConfidence = 0.8

// requiredTargets are the target fields a usable mapping must cover;
// schema confidence is the fraction of these with a suggestion.
var requiredTargets = []string{TargetID, TargetStatus}

type suggestionPattern struct {
	re     *regexp.Regexp
	target string
	reason string
}

// Ordered: the first matching pattern wins.
var suggestionPatterns = []suggestionPattern{
	{regexp.MustCompile(`(?i)^(id|.*_id|key|uuid)$`), TargetID, "field name looks like a unique identifier"},
	{regexp.MustCompile(`(?i)owner|assigned|rep|user|employee`), TargetOwnerID, "field name looks like an owner or assignee"},
	{regexp.MustCompile(`(?i)amount|value|price|revenue|total`), TargetValue, "field name looks like a monetary amount"},
	{regexp.MustCompile(`(?i)status|stage|state|phase`), TargetStatus, "field name looks like a pipeline stage"},
	{regexp.MustCompile(`(?i)created|date_added|opened`), TargetCreatedAt, "field name looks like a creation date"},
	{regexp.MustCompile(`(?i)updated|modified|changed`), TargetUpdatedAt, "field name looks like a modification date"},
	{regexp.MustCompile(`(?i)closed|completed|finished|ended`), TargetClosedAt, "field name looks like a close date"},
}

// DetectFieldTypes classifies each named field by sampling up to the
// first 100 rows. A field is a number, date or boolean only when every
// sampled non-empty value reads as that type; disagreeing samples make
// it mixed. A field is nullable when any sampled value is empty.
func DetectFieldTypes(rows []RawRow, fields []string) []FieldInfo {
	sample := rows
	if len(sample) > detectSampleRows {
		sample = sample[:detectSampleRows]
	}

	infos := make([]FieldInfo, 0, len(fields))
	for _, name := range fields {
		info := FieldInfo{Name: name, Type: FieldString}
		detected := FieldType("")

		for _, row := range sample {
			v, ok := PathValue(row, name)
			if !ok || isEmpty(v) {
				info.Nullable = true
				continue
			}
			if info.Sample == nil {
				info.Sample = v
			}

			kind := classifyValue(v)
			switch {
			case detected == "":
				detected = kind
			case detected != kind:
				detected = FieldMixed
			}
		}

		if detected != "" {
			info.Type = detected
		}
		infos = append(infos, info)
	}
	return infos
}

// classifyValue picks the most specific type a single value reads as.
// Numbers are checked before dates so that plain numeric columns do not
// classify as epoch timestamps.
func classifyValue(v any) FieldType {
	switch t := v.(type) {
	case bool:
		return FieldBoolean
	case float64, float32, int, int64:
		return FieldNumber
	case string:
		s := strings.TrimSpace(t)
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return FieldNumber
		}
		if _, ok := ParseBool(s); ok {
			return FieldBoolean
		}
		if ParseDate(s) != nil {
			return FieldDate
		}
		return FieldString
	default:
		return FieldString
	}
}

// SuggestMappings proposes a target field for each source field whose
// name matches one of the known patterns. The first matching pattern
// wins and every suggestion carries the same fixed confidence.
func SuggestMappings(fields []string) []MappingSuggestion {
	suggestions := []MappingSuggestion{}
	for _, name := range fields {
		for _, p := range suggestionPatterns {
			if !p.re.MatchString(name) {
				continue
			}
			suggestions = append(suggestions, MappingSuggestion{
				SourceField: name,
				TargetField: p.target,
				Confidence:  SuggestionConfidence,
				Reason:      fmt.Sprintf("%s (%q)", p.reason, name),
			})
			break
		}
	}
	return suggestions
}

// DetectSchema runs type inference and mapping suggestion over a row
// sample. Confidence is the fraction of required targets (id, status)
// that received at least one suggestion: 0, 0.5 or 1.0.
func DetectSchema(rows []RawRow, fields []string) SchemaDetection {
	suggestions := SuggestMappings(fields)

	covered := make(map[string]bool)
	for _, s := range suggestions {
		covered[s.TargetField] = true
	}
	hits := 0
	for _, target := range requiredTargets {
		if covered[target] {
			hits++
		}
	}

	return SchemaDetection{
		Fields:      DetectFieldTypes(rows, fields),
		Suggestions: suggestions,
		Confidence:  float64(hits) / float64(len(requiredTargets)),
	}
}

// MappingsFromSuggestions converts suggestions into direct field
// mappings, the form Normalize consumes.
func MappingsFromSuggestions(suggestions []MappingSuggestion) []FieldMapping {
	mappings := make([]FieldMapping, 0, len(suggestions))
	for _, s := range suggestions {
		mappings = append(mappings, FieldMapping{
			SourceField: s.SourceField,
			TargetField: s.TargetField,
		})
	}
	return mappings
}
