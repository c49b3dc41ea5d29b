package metrics

import "testing"

func TestFormatValue(t *testing.T) {
	two := 2
	zero := 0

	tests := []struct {
		name   string
		value  *float64
		format Format
		want   string
	}{
		{
			name:   "nil renders placeholder",
			value:  nil,
			format: Format{Type: FormatCurrency, Currency: "USD"},
			want:   NullPlaceholder,
		},
		{
			name:   "currency with grouping",
			value:  f(6000),
			format: Format{Type: FormatCurrency, Currency: "USD"},
			want:   "$6,000.00",
		},
		{
			name:   "currency defaults to USD",
			value:  f(99.5),
			format: Format{Type: FormatCurrency},
			want:   "$99.50",
		},
		{
			name:   "euro symbol",
			value:  f(1234.5),
			format: Format{Type: FormatCurrency, Currency: "EUR"},
			want:   "€1,234.50",
		},
		{
			name:   "unknown currency prefixes the code",
			value:  f(10),
			format: Format{Type: FormatCurrency, Currency: "CHF"},
			want:   "CHF 10.00",
		},
		{
			name:   "percentage default one decimal",
			value:  f(33.333),
			format: Format{Type: FormatPercentage},
			want:   "33.3%",
		},
		{
			name:   "percentage custom decimals",
			value:  f(50),
			format: Format{Type: FormatPercentage, Decimals: &zero},
			want:   "50%",
		},
		{
			name:   "duration in days",
			value:  f(12.5),
			format: Format{Type: FormatDuration},
			want:   "12.5 days",
		},
		{
			name:   "sub-day duration in hours",
			value:  f(0.5),
			format: Format{Type: FormatDuration},
			want:   "12.0 hours",
		},
		{
			name:   "number defaults to no decimals",
			value:  f(1234567.89),
			format: Format{Type: FormatNumber},
			want:   "1,234,568",
		},
		{
			name:   "explicit decimals override",
			value:  f(3.14159),
			format: Format{Type: FormatNumber, Decimals: &two},
			want:   "3.14",
		},
		{
			name:   "prefix and suffix wrap the value",
			value:  f(42),
			format: Format{Type: FormatNumber, Prefix: "~", Suffix: " deals"},
			want:   "~42 deals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(tt.value, tt.format)
			if got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatComparison(t *testing.T) {
	if got := FormatComparison(nil); got != NullPlaceholder {
		t.Errorf("nil comparison = %q, want placeholder", got)
	}
	if got := FormatComparison(&Comparison{Trend: TrendNeutral}); got != NullPlaceholder {
		t.Errorf("comparison without delta = %q, want placeholder", got)
	}

	pct := 12.5
	if got := FormatComparison(&Comparison{DeltaPercent: &pct}); got != "+12.5%" {
		t.Errorf("positive delta = %q, want +12.5%%", got)
	}
	neg := -7.25
	if got := FormatComparison(&Comparison{DeltaPercent: &neg}); got != "-7.2%" {
		t.Errorf("negative delta = %q, want -7.2%%", got)
	}
}
