// Package metrics computes dashboard metrics over normalized records:
// a single aggregated value per definition, an optional period-over-
// period comparison, and an optional breakdown by a grouping field.
// The engine is a pure function of its inputs; it never mutates the
// records it is given.
package metrics

import "time"

// Aggregation is the closed set of supported aggregation types. The
// engine switches over it exhaustively; adding a member means touching
// every switch, which is the point.
type Aggregation string

const (
	AggCount          Aggregation = "count"
	AggSum            Aggregation = "sum"
	AggAverage        Aggregation = "average"
	AggMin            Aggregation = "min"
	AggMax            Aggregation = "max"
	AggMedian         Aggregation = "median"
	AggConversionRate Aggregation = "conversion_rate"
	AggCycleTime      Aggregation = "cycle_time"
)

// Operator is the closed set of filter comparators.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpGreaterThan    Operator = "greater_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessThan       Operator = "less_than"
	OpLessOrEqual    Operator = "less_or_equal"
	OpIn             Operator = "in"
	OpContains       Operator = "contains"
)

// Filter restricts the record set before aggregation. Filters are ANDed.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Formula names the record field an aggregation reads. Numerator and
// Denominator exist for derived conversion-rate metrics but are not yet
// evaluated; conversion_rate falls back to the closed-record ratio.
type Formula struct {
	Field       string   `json:"field,omitempty"`
	Numerator   *Formula `json:"numerator,omitempty"`
	Denominator *Formula `json:"denominator,omitempty"`
}

// FormatType selects how a computed value renders.
type FormatType string

const (
	FormatNumber     FormatType = "number"
	FormatCurrency   FormatType = "currency"
	FormatPercentage FormatType = "percentage"
	FormatDuration   FormatType = "duration"
)

// Format controls value rendering. Decimals is a pointer so "not set"
// is distinguishable from an explicit zero; each format type has its
// own default.
type Format struct {
	Type     FormatType `json:"type"`
	Decimals *int       `json:"decimals,omitempty"`
	Currency string     `json:"currency,omitempty"`
	Prefix   string     `json:"prefix,omitempty"`
	Suffix   string     `json:"suffix,omitempty"`
}

// MetricDefinition describes one metric to compute.
type MetricDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Aggregation Aggregation      `json:"aggregation"`
	Formula     Formula          `json:"formula"`
	Filters     []Filter         `json:"filters,omitempty"`
	GroupBy     []string         `json:"groupBy,omitempty"`
	Format      Format           `json:"format"`
}

// Trend is the direction of a period-over-period comparison.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Comparison relates the current value to the previous period's.
// Delta and DeltaPercent are nil when either side is absent or the
// previous value is zero.
type Comparison struct {
	Previous     *float64 `json:"previousValue"`
	Delta        *float64 `json:"delta"`
	DeltaPercent *float64 `json:"deltaPercent"`
	Trend        Trend    `json:"trend"`
}

// BreakdownEntry is one group's share of a metric.
type BreakdownEntry struct {
	Group      string  `json:"group"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// MetricValue is the computed result for one definition. Value is nil
// when the aggregation had nothing to compute, which formats as "—".
type MetricValue struct {
	DefinitionID string           `json:"definitionId"`
	Name         string           `json:"name"`
	Value        *float64         `json:"value"`
	Formatted    string           `json:"formattedValue"`
	Period       Period           `json:"period"`
	Comparison   *Comparison      `json:"comparison,omitempty"`
	Breakdown    []BreakdownEntry `json:"breakdown,omitempty"`
}

// PeriodType is the calendar unit a period covers.
type PeriodType string

const (
	PeriodDay     PeriodType = "day"
	PeriodWeek    PeriodType = "week"
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
	PeriodAll     PeriodType = "all"
	PeriodCustom  PeriodType = "custom"
)

// Period is an inclusive [Start, End] time range with a display label.
type Period struct {
	Type  PeriodType `json:"type"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Label string     `json:"label"`
}

// Contains reports whether t falls inside the period, boundaries
// included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}
