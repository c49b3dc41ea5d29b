package metrics

// engine.go holds the aggregation pipeline: period filter -> metric
// filters -> aggregate -> comparison/breakdown -> formatting. Empty
// inputs are a valid outcome, not an error: every aggregation except
// count yields nil on an empty set, and nil formats as an em-dash.

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dealview/dealview/internal/core"
)

const (
	hoursPerDay = 24
	msPerDay    = 24 * 60 * 60 * 1000
)

// DefaultGroup labels breakdown entries whose grouping field is missing.
const DefaultGroup = "Other"

// Engine computes metrics over a fixed snapshot of records.
type Engine struct {
	records []core.Record
}

// New returns an engine over the given records. The engine never
// mutates them; concurrent Compute calls are safe.
func New(records []core.Record) *Engine {
	return &Engine{records: records}
}

// Compute evaluates one metric definition over the period. When prev is
// non-nil the same aggregation runs over the previous period's records
// and the result carries a comparison.
func (e *Engine) Compute(def MetricDefinition, period Period, prev *Period) MetricValue {
	filtered := e.filter(def, period)
	value := aggregate(def, filtered)

	mv := MetricValue{
		DefinitionID: def.ID,
		Name:         def.Name,
		Value:        value,
		Formatted:    FormatValue(value, def.Format),
		Period:       period,
	}

	if prev != nil {
		prevValue := aggregate(def, e.filter(def, *prev))
		mv.Comparison = compare(value, prevValue)
	}

	if len(def.GroupBy) > 0 {
		mv.Breakdown = breakdown(def, filtered)
	}

	return mv
}

// ComputeMany evaluates several definitions over the same periods.
func (e *Engine) ComputeMany(defs []MetricDefinition, period Period, prev *Period) []MetricValue {
	values := make([]MetricValue, 0, len(defs))
	for _, def := range defs {
		values = append(values, e.Compute(def, period, prev))
	}
	return values
}

// filter keeps records created within the period that pass every
// configured filter.
func (e *Engine) filter(def MetricDefinition, period Period) []core.Record {
	var out []core.Record
	for _, rec := range e.records {
		if !period.Contains(rec.CreatedAt) {
			continue
		}
		if !matchesAll(rec, def.Filters) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesAll(rec core.Record, filters []Filter) bool {
	for _, f := range filters {
		if !matches(rec, f) {
			return false
		}
	}
	return true
}

// matches applies one filter comparator. Numeric comparators evaluate
// false for values that do not read as numbers.
func matches(rec core.Record, f Filter) bool {
	v, _ := core.FieldValue(rec, f.Field)

	switch f.Operator {
	case OpEquals:
		return fmt.Sprint(v) == fmt.Sprint(f.Value)
	case OpNotEquals:
		return fmt.Sprint(v) != fmt.Sprint(f.Value)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		lhs, lok := numeric(v)
		rhs, rok := numeric(f.Value)
		if !lok || !rok {
			return false
		}
		switch f.Operator {
		case OpGreaterThan:
			return lhs > rhs
		case OpGreaterOrEqual:
			return lhs >= rhs
		case OpLessThan:
			return lhs < rhs
		default:
			return lhs <= rhs
		}
	case OpIn:
		members, ok := f.Value.([]any)
		if !ok {
			if strs, sok := f.Value.([]string); sok {
				for _, m := range strs {
					if fmt.Sprint(v) == m {
						return true
					}
				}
			}
			return false
		}
		for _, m := range members {
			if fmt.Sprint(v) == fmt.Sprint(m) {
				return true
			}
		}
		return false
	case OpContains:
		return strings.Contains(
			strings.ToLower(fmt.Sprint(v)),
			strings.ToLower(fmt.Sprint(f.Value)),
		)
	default:
		return false
	}
}

// aggregate reduces the filtered records to a single value. Count is
// the only aggregation that returns 0 instead of nil on an empty set.
func aggregate(def MetricDefinition, records []core.Record) *float64 {
	if def.Aggregation == AggCount {
		return ptr(float64(len(records)))
	}
	if len(records) == 0 {
		return nil
	}

	switch def.Aggregation {
	case AggSum:
		sum := 0.0
		for _, v := range numericField(records, def.Formula.Field) {
			sum += v
		}
		return ptr(sum)

	case AggAverage:
		values := numericField(records, def.Formula.Field)
		if len(values) == 0 {
			return nil
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return ptr(sum / float64(len(values)))

	case AggMin:
		values := numericField(records, def.Formula.Field)
		if len(values) == 0 {
			return nil
		}
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return ptr(min)

	case AggMax:
		values := numericField(records, def.Formula.Field)
		if len(values) == 0 {
			return nil
		}
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return ptr(max)

	case AggMedian:
		values := numericField(records, def.Formula.Field)
		if len(values) == 0 {
			return nil
		}
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			return ptr(values[mid])
		}
		return ptr((values[mid-1] + values[mid]) / 2)

	case AggConversionRate:
		// Numerator/denominator formulas are not evaluated yet; the
		// fallback is the share of records that reached a close date.
		closed := 0
		for _, rec := range records {
			if rec.ClosedAt != nil {
				closed++
			}
		}
		return ptr(float64(closed) / float64(len(records)) * 100)

	case AggCycleTime:
		total, n := 0.0, 0
		for _, rec := range records {
			if rec.ClosedAt == nil {
				continue
			}
			days := rec.ClosedAt.Sub(rec.CreatedAt).Hours() / hoursPerDay
			if days <= 0 {
				continue
			}
			total += days
			n++
		}
		if n == 0 {
			return nil
		}
		return ptr(total / float64(n))

	default:
		return nil
	}
}

// numericField extracts the formula field from each record, keeping
// only values that read as numbers.
func numericField(records []core.Record, field string) []float64 {
	if field == "" {
		field = core.TargetValue
	}
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		v, ok := core.FieldValue(rec, field)
		if !ok {
			continue
		}
		if f, ok := numeric(v); ok {
			values = append(values, f)
		}
	}
	return values
}

// numeric coerces a field value to float64 when it genuinely reads as
// a number. Unlike core.ParseNumber it rejects non-numeric strings
// instead of mapping them to 0, since aggregations skip bad values.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case time.Time:
		return 0, false
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		cleaned := core.ParseNumber(s)
		if cleaned == 0 && !strings.ContainsAny(s, "0123456789") {
			return 0, false
		}
		return cleaned, true
	default:
		return 0, false
	}
}

// compare derives delta, percent change and trend from the current and
// previous values, avoiding division by zero: a nil or zero previous
// value yields nil deltas and an "up" trend only when current is
// positive.
func compare(current, previous *float64) *Comparison {
	c := &Comparison{Previous: previous, Trend: TrendNeutral}

	if current == nil {
		return c
	}
	if previous == nil || *previous == 0 {
		if *current > 0 {
			c.Trend = TrendUp
		}
		return c
	}

	delta := *current - *previous
	pct := delta / *previous * 100
	c.Delta = &delta
	c.DeltaPercent = &pct
	switch {
	case delta > 0:
		c.Trend = TrendUp
	case delta < 0:
		c.Trend = TrendDown
	}
	return c
}

// breakdown partitions the filtered records by the first groupBy field,
// re-aggregates per group, and attaches each group's share of the
// total, sorted descending by value.
func breakdown(def MetricDefinition, records []core.Record) []BreakdownEntry {
	field := def.GroupBy[0]

	groups := make(map[string][]core.Record)
	order := []string{}
	for _, rec := range records {
		label := DefaultGroup
		if v, ok := core.FieldValue(rec, field); ok && fmt.Sprint(v) != "" {
			label = fmt.Sprint(v)
		}
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], rec)
	}

	entries := make([]BreakdownEntry, 0, len(order))
	total := 0.0
	for _, label := range order {
		value := 0.0
		if v := aggregate(def, groups[label]); v != nil {
			value = *v
		}
		total += value
		entries = append(entries, BreakdownEntry{Group: label, Value: value})
	}

	for i := range entries {
		if total != 0 {
			entries[i].Percentage = entries[i].Value / total * 100
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	return entries
}

func ptr(f float64) *float64 { return &f }
