package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/dealview/dealview/internal/core"
)

var testPeriod = NewPeriod(PeriodMonth, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

func deal(id, owner string, value float64, status string, created time.Time) core.Record {
	return core.Record{
		ID:        id,
		OwnerID:   owner,
		Value:     value,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func closedDeal(id string, value float64, created time.Time, closedAfterDays int) core.Record {
	rec := deal(id, "ana", value, "won", created)
	closed := created.AddDate(0, 0, closedAfterDays)
	rec.ClosedAt = &closed
	return rec
}

func januaryDeals() []core.Record {
	return []core.Record{
		deal("d1", "ana", 1000, "prospecting", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		deal("d2", "ben", 2000, "qualification", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		deal("d3", "ana", 3000, "won", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
	}
}

func sumDef() MetricDefinition {
	return MetricDefinition{
		ID:          "m1",
		Name:        "Pipeline value",
		Aggregation: AggSum,
		Formula:     Formula{Field: "value"},
		Format:      Format{Type: FormatCurrency, Currency: "USD"},
	}
}

// ----------------------------------------------------------------------------
// Aggregation Tests
// ----------------------------------------------------------------------------

func TestCompute_Sum(t *testing.T) {
	engine := New(januaryDeals())
	mv := engine.Compute(sumDef(), testPeriod, nil)

	if mv.Value == nil || *mv.Value != 6000 {
		t.Fatalf("Value = %v, want 6000", mv.Value)
	}
	if mv.Formatted != "$6,000.00" {
		t.Errorf("Formatted = %q, want %q", mv.Formatted, "$6,000.00")
	}
}

func TestCompute_EmptySetSemantics(t *testing.T) {
	engine := New(nil)

	count := engine.Compute(MetricDefinition{Aggregation: AggCount}, testPeriod, nil)
	if count.Value == nil || *count.Value != 0 {
		t.Errorf("count of empty set = %v, want 0", count.Value)
	}

	for _, agg := range []Aggregation{AggSum, AggAverage, AggMin, AggMax, AggMedian, AggConversionRate, AggCycleTime} {
		mv := engine.Compute(MetricDefinition{Aggregation: agg, Formula: Formula{Field: "value"}}, testPeriod, nil)
		if mv.Value != nil {
			t.Errorf("%s of empty set = %v, want nil", agg, *mv.Value)
		}
		if mv.Formatted != NullPlaceholder {
			t.Errorf("%s formatted = %q, want placeholder", agg, mv.Formatted)
		}
	}
}

func TestCompute_Aggregations(t *testing.T) {
	records := januaryDeals()

	tests := []struct {
		name string
		agg  Aggregation
		want float64
	}{
		{name: "count", agg: AggCount, want: 3},
		{name: "sum", agg: AggSum, want: 6000},
		{name: "average", agg: AggAverage, want: 2000},
		{name: "min", agg: AggMin, want: 1000},
		{name: "max", agg: AggMax, want: 3000},
		{name: "median odd", agg: AggMedian, want: 2000},
	}

	engine := New(records)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv := engine.Compute(MetricDefinition{Aggregation: tt.agg, Formula: Formula{Field: "value"}}, testPeriod, nil)
			if mv.Value == nil || *mv.Value != tt.want {
				t.Errorf("Value = %v, want %v", mv.Value, tt.want)
			}
		})
	}
}

func TestCompute_MedianEven(t *testing.T) {
	records := append(januaryDeals(),
		deal("d4", "cat", 4000, "won", time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)))

	engine := New(records)
	mv := engine.Compute(MetricDefinition{Aggregation: AggMedian, Formula: Formula{Field: "value"}}, testPeriod, nil)
	if mv.Value == nil || *mv.Value != 2500 {
		t.Errorf("median = %v, want 2500 (mean of middle pair)", mv.Value)
	}
}

func TestCompute_ConversionRate(t *testing.T) {
	records := []core.Record{
		closedDeal("d1", 100, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 5),
		deal("d2", "ana", 200, "open", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
		deal("d3", "ana", 300, "open", time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)),
		deal("d4", "ana", 400, "open", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
	}

	engine := New(records)
	mv := engine.Compute(MetricDefinition{Aggregation: AggConversionRate}, testPeriod, nil)
	if mv.Value == nil || *mv.Value != 25 {
		t.Errorf("conversion rate = %v, want 25", mv.Value)
	}
}

func TestCompute_CycleTime(t *testing.T) {
	records := []core.Record{
		closedDeal("d1", 100, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 10),
		closedDeal("d2", 200, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 20),
		// Open record and negative-cycle record are both excluded.
		deal("d3", "ana", 300, "open", time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)),
		closedDeal("d4", 400, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), -2),
	}

	engine := New(records)
	mv := engine.Compute(MetricDefinition{Aggregation: AggCycleTime}, testPeriod, nil)
	if mv.Value == nil || *mv.Value != 15 {
		t.Errorf("cycle time = %v, want 15 days", mv.Value)
	}
}

func TestCompute_PeriodBoundariesInclusive(t *testing.T) {
	records := []core.Record{
		deal("in-start", "ana", 1, "open", testPeriod.Start),
		deal("in-end", "ana", 1, "open", testPeriod.End),
		deal("before", "ana", 1, "open", testPeriod.Start.Add(-time.Millisecond)),
		deal("after", "ana", 1, "open", testPeriod.End.Add(time.Millisecond)),
	}

	engine := New(records)
	mv := engine.Compute(MetricDefinition{Aggregation: AggCount}, testPeriod, nil)
	if mv.Value == nil || *mv.Value != 2 {
		t.Errorf("count = %v, want 2 (inclusive boundaries)", mv.Value)
	}
}

// ----------------------------------------------------------------------------
// Filter Tests
// ----------------------------------------------------------------------------

func TestCompute_Filters(t *testing.T) {
	records := januaryDeals()

	tests := []struct {
		name    string
		filters []Filter
		want    float64
	}{
		{
			name:    "equals",
			filters: []Filter{{Field: "status", Operator: OpEquals, Value: "won"}},
			want:    1,
		},
		{
			name:    "not equals",
			filters: []Filter{{Field: "status", Operator: OpNotEquals, Value: "won"}},
			want:    2,
		},
		{
			name:    "greater than",
			filters: []Filter{{Field: "value", Operator: OpGreaterThan, Value: 1500.0}},
			want:    2,
		},
		{
			name:    "less or equal",
			filters: []Filter{{Field: "value", Operator: OpLessOrEqual, Value: 2000.0}},
			want:    2,
		},
		{
			name:    "in",
			filters: []Filter{{Field: "ownerId", Operator: OpIn, Value: []any{"ana", "cat"}}},
			want:    2,
		},
		{
			name:    "contains is case-insensitive",
			filters: []Filter{{Field: "status", Operator: OpContains, Value: "QUAL"}},
			want:    1,
		},
		{
			name: "filters are ANDed",
			filters: []Filter{
				{Field: "ownerId", Operator: OpEquals, Value: "ana"},
				{Field: "value", Operator: OpGreaterThan, Value: 1500.0},
			},
			want: 1,
		},
		{
			name:    "numeric operator on non-numeric value",
			filters: []Filter{{Field: "status", Operator: OpGreaterThan, Value: 100.0}},
			want:    0,
		},
	}

	engine := New(records)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv := engine.Compute(MetricDefinition{Aggregation: AggCount, Filters: tt.filters}, testPeriod, nil)
			if mv.Value == nil || *mv.Value != tt.want {
				t.Errorf("count = %v, want %v", mv.Value, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Comparison Tests
// ----------------------------------------------------------------------------

func TestCompute_Comparison(t *testing.T) {
	january := januaryDeals()
	december := []core.Record{
		deal("p1", "ana", 4000, "won", time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC)),
	}

	engine := New(append(january, december...))
	prev := PreviousPeriod(testPeriod)
	mv := engine.Compute(sumDef(), testPeriod, &prev)

	c := mv.Comparison
	if c == nil {
		t.Fatal("no comparison computed")
	}
	if c.Previous == nil || *c.Previous != 4000 {
		t.Errorf("Previous = %v, want 4000", c.Previous)
	}
	if c.Delta == nil || *c.Delta != 2000 {
		t.Errorf("Delta = %v, want 2000", c.Delta)
	}
	if c.DeltaPercent == nil || *c.DeltaPercent != 50 {
		t.Errorf("DeltaPercent = %v, want 50", c.DeltaPercent)
	}
	if c.Trend != TrendUp {
		t.Errorf("Trend = %q, want up", c.Trend)
	}
}

func TestCompare_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		current   *float64
		previous  *float64
		wantTrend Trend
		wantNil   bool
	}{
		{name: "nil current", current: nil, previous: f(100), wantTrend: TrendNeutral, wantNil: true},
		{name: "nil previous", current: f(100), previous: nil, wantTrend: TrendUp, wantNil: true},
		{name: "zero previous", current: f(100), previous: f(0), wantTrend: TrendUp, wantNil: true},
		{name: "zero previous zero current", current: f(0), previous: f(0), wantTrend: TrendNeutral, wantNil: true},
		{name: "downward", current: f(50), previous: f(100), wantTrend: TrendDown, wantNil: false},
		{name: "flat", current: f(100), previous: f(100), wantTrend: TrendNeutral, wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compare(tt.current, tt.previous)
			if c.Trend != tt.wantTrend {
				t.Errorf("Trend = %q, want %q", c.Trend, tt.wantTrend)
			}
			if tt.wantNil && (c.Delta != nil || c.DeltaPercent != nil) {
				t.Errorf("Delta/DeltaPercent = %v/%v, want nil", c.Delta, c.DeltaPercent)
			}
			if !tt.wantNil && c.Delta == nil {
				t.Error("Delta = nil, want value")
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Breakdown Tests
// ----------------------------------------------------------------------------

func TestCompute_Breakdown(t *testing.T) {
	def := sumDef()
	def.GroupBy = []string{"ownerId"}

	engine := New(januaryDeals())
	mv := engine.Compute(def, testPeriod, nil)

	if len(mv.Breakdown) != 2 {
		t.Fatalf("breakdown groups = %d, want 2", len(mv.Breakdown))
	}

	// Sorted descending by value: ana 4000, ben 2000.
	if mv.Breakdown[0].Group != "ana" || mv.Breakdown[0].Value != 4000 {
		t.Errorf("top group = %+v, want ana/4000", mv.Breakdown[0])
	}
	if mv.Breakdown[1].Group != "ben" || mv.Breakdown[1].Value != 2000 {
		t.Errorf("second group = %+v, want ben/2000", mv.Breakdown[1])
	}

	if math.Abs(mv.Breakdown[0].Percentage-66.666) > 0.01 {
		t.Errorf("top percentage = %v, want ~66.67", mv.Breakdown[0].Percentage)
	}
}

func TestCompute_BreakdownMissingGroup(t *testing.T) {
	records := januaryDeals()
	records = append(records, deal("d4", "", 500, "open", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))

	def := sumDef()
	def.GroupBy = []string{"ownerId"}

	engine := New(records)
	mv := engine.Compute(def, testPeriod, nil)

	found := false
	for _, entry := range mv.Breakdown {
		if entry.Group == DefaultGroup {
			found = true
			if entry.Value != 500 {
				t.Errorf("default group value = %v, want 500", entry.Value)
			}
		}
	}
	if !found {
		t.Errorf("no %q group in breakdown: %+v", DefaultGroup, mv.Breakdown)
	}
}

func TestComputeMany(t *testing.T) {
	engine := New(januaryDeals())
	defs := []MetricDefinition{
		sumDef(),
		{ID: "m2", Aggregation: AggCount},
	}

	values := engine.ComputeMany(defs, testPeriod, nil)
	if len(values) != 2 {
		t.Fatalf("values = %d, want 2", len(values))
	}
	if values[0].DefinitionID != "m1" || values[1].DefinitionID != "m2" {
		t.Errorf("definition order not preserved: %s, %s", values[0].DefinitionID, values[1].DefinitionID)
	}
}

func f(v float64) *float64 { return &v }
