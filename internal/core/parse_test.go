package core

import (
	"math"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		// Valid: plain numbers
		{name: "integer string", input: "123", want: 123},
		{name: "decimal string", input: "123.45", want: 123.45},
		{name: "negative string", input: "-45.5", want: -45.5},

		// Valid: currency artifacts stripped
		{name: "dollar amount", input: "$1,234.56", want: 1234.56},
		{name: "euro amount", input: "€2.500", want: 2.5},
		{name: "amount with spaces", input: " 1 000 ", want: 1000},

		// Valid: native numeric types
		{name: "float64", input: float64(99.9), want: 99.9},
		{name: "int", input: 42, want: 42},
		{name: "bool true", input: true, want: 1},
		{name: "bool false", input: false, want: 0},

		// Invalid: all map to exactly 0, never NaN
		{name: "letters", input: "abc", want: 0},
		{name: "empty string", input: "", want: 0},
		{name: "nil", input: nil, want: 0},
		{name: "double dash", input: "--", want: 0},
		{name: "NaN input", input: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.input)
			if math.IsNaN(got) {
				t.Fatalf("ParseNumber(%v) returned NaN", tt.input)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *time.Time
	}{
		{
			name:  "ISO date",
			input: "2024-01-15",
			want:  timePtr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "RFC3339",
			input: "2024-01-15T10:30:00Z",
			want:  timePtr(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:  "US slash date",
			input: "1/15/2024",
			want:  timePtr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "epoch seconds",
			input: float64(1700000000),
			want:  timePtr(time.Unix(1700000000, 0).UTC()),
		},
		{
			name:  "epoch milliseconds",
			input: float64(1700000000000),
			want:  timePtr(time.UnixMilli(1700000000000).UTC()),
		},
		{
			name:  "numeric string epoch",
			input: "1700000000",
			want:  timePtr(time.Unix(1700000000, 0).UTC()),
		},
		{name: "garbage", input: "not a date", want: nil},
		{name: "empty", input: "", want: nil},
		{name: "nil", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseDate(%v) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_NativeTimePassthrough(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := ParseDate(now)
	if got == nil || !got.Equal(now) {
		t.Errorf("ParseDate(time.Time) = %v, want %v", got, now)
	}

	if ParseDate(time.Time{}) != nil {
		t.Error("ParseDate(zero time) should be nil")
	}
}

// ----------------------------------------------------------------------------
// PathValue Tests
// ----------------------------------------------------------------------------

func TestPathValue(t *testing.T) {
	row := RawRow{
		"amount":    "100",
		"a.literal": "direct",
		"contact": map[string]any{
			"email": "jo@example.com",
			"address": map[string]any{
				"city": "Oslo",
			},
		},
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "plain key", path: "amount", want: "100", wantOK: true},
		{name: "literal dotted key wins", path: "a.literal", want: "direct", wantOK: true},
		{name: "one level deep", path: "contact.email", want: "jo@example.com", wantOK: true},
		{name: "two levels deep", path: "contact.address.city", want: "Oslo", wantOK: true},
		{name: "missing key", path: "nope", want: nil, wantOK: false},
		{name: "missing nested key", path: "contact.phone", want: nil, wantOK: false},
		{name: "path into scalar", path: "amount.sub", want: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PathValue(row, tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("PathValue(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
