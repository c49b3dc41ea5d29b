package core

// parse.go provides the shared value-parsing primitives used by the
// normalization transforms and by type inference.
//
// These functions handle the messy reality of exported business data:
//   - ISO dates, US-style dates, and numeric epoch timestamps
//   - Currency symbols and thousands separators in numbers
//   - Various boolean spellings (yes/no, true/false, 1/0)
//
// Parsing failures are soft: ParseDate returns nil and ParseNumber
// returns 0 so that a single bad cell never blocks ingestion.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// epochMillisCutoff separates second-resolution epoch timestamps from
// millisecond-resolution ones.
const epochMillisCutoff = 1e12

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate converts a raw cell value to a time, or nil when nothing
// parses. time.Time values pass through unchanged; strings are tried
// against ISO and common layouts; numeric values are treated as epoch
// timestamps (milliseconds when > 1e12, seconds otherwise).
func ParseDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case float64:
		return epochTime(t)
	case int:
		return epochTime(float64(t))
	case int64:
		return epochTime(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return epochTime(f)
		}
		return nil
	default:
		return ParseDate(fmt.Sprint(v))
	}
}

func epochTime(f float64) *time.Time {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	var t time.Time
	if math.Abs(f) > epochMillisCutoff {
		t = time.UnixMilli(int64(f)).UTC()
	} else {
		t = time.Unix(int64(f), 0).UTC()
	}
	return &t
}

// ParseNumber converts a raw cell value to a float. It strips every
// character except digits, '.' and '-' before parsing, so currency
// symbols and thousands separators are tolerated. Unparseable input
// yields exactly 0, never NaN and never an error.
func ParseNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		cleaned := stripNonNumeric(n)
		if cleaned == "" {
			return 0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return ParseNumber(fmt.Sprint(v))
	}
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseBool reports whether the value reads as a boolean, and its value.
func ParseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

// PathValue resolves a dot-path ("contact.email") into a raw row.
// A plain key is looked up directly first so that headers containing
// literal dots keep working.
func PathValue(row RawRow, path string) (any, bool) {
	if v, ok := row[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}
	var cur any = map[string]any(row)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// isEmpty reports whether a raw value counts as missing for detection
// and defaulting purposes.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
