// Package funnel computes pipeline stage-progression metrics over
// normalized records. Stage membership is cumulative and derived from
// each record's current status: a record counts toward every stage at
// or before its current one. That is a deliberate point-in-time
// approximation for snapshot data with no transition history; only
// average time-in-stage and transitions need real StageEvents.
package funnel

import (
	"sort"
	"strings"

	"github.com/dealview/dealview/internal/core"
	"github.com/dealview/dealview/internal/metrics"
)

const (
	hoursPerDay = 24
	msPerDay    = 24 * 60 * 60 * 1000
)

// Stage is one step of the pipeline. Order defines the sequence;
// stages are sorted by it before any computation.
type Stage struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// StageMetrics is the computed result for one stage. ConversionToNext
// and DropOff are nil for the last stage or when the stage has no
// records; AvgTimeInStage is nil without stage events.
type StageMetrics struct {
	Stage            string   `json:"stage"`
	Count            int      `json:"count"`
	Percentage       float64  `json:"percentage"`
	ConversionToNext *float64 `json:"conversionToNext"`
	DropOff          *float64 `json:"dropOff"`
	AvgTimeInStage   *float64 `json:"averageTimeInStage"` // days
}

// Metrics is the full funnel computation result.
type Metrics struct {
	Stages            []StageMetrics `json:"stages"`
	TotalRecords      int            `json:"totalRecords"`
	OverallConversion float64        `json:"overallConversion"`
	AvgCycleTime      *float64       `json:"averageCycleTime"` // days
}

// Transition aggregates stage-to-stage movements from event history.
type Transition struct {
	From        string   `json:"fromStage"`
	To          string   `json:"toStage"`
	Count       int      `json:"count"`
	Percentage  float64  `json:"percentage"`
	AvgDuration *float64 `json:"averageDuration"` // days
}

// Engine computes funnel metrics over a fixed snapshot of records,
// stage events and stages. It never mutates its inputs.
type Engine struct {
	records []core.Record
	events  []core.StageEvent
	stages  []Stage
}

// New returns an engine with stages sorted ascending by order.
func New(records []core.Record, events []core.StageEvent, stages []Stage) *Engine {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return &Engine{records: records, events: events, stages: sorted}
}

// Compute derives per-stage cumulative counts, conversion and drop-off
// between adjacent stages, time-in-stage averages, and the overall
// first-to-last conversion. A non-nil period restricts records to
// those created within it.
func (e *Engine) Compute(period *metrics.Period) Metrics {
	records := e.records
	if period != nil {
		filtered := make([]core.Record, 0, len(records))
		for _, rec := range records {
			if period.Contains(rec.CreatedAt) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	stageIdx := make(map[string]int, len(e.stages))
	for i, s := range e.stages {
		stageIdx[s.Name] = i
	}

	counts := make([]int, len(e.stages))
	for _, rec := range records {
		idx, ok := stageIdx[rec.Status]
		if !ok {
			continue
		}
		for s := 0; s <= idx; s++ {
			counts[s]++
		}
	}

	total := len(records)
	result := Metrics{
		Stages:       make([]StageMetrics, 0, len(e.stages)),
		TotalRecords: total,
	}

	for i, stage := range e.stages {
		sm := StageMetrics{
			Stage:          stage.Name,
			Count:          counts[i],
			AvgTimeInStage: e.avgTimeInStage(stage.Name),
		}
		if total > 0 {
			sm.Percentage = float64(counts[i]) / float64(total) * 100
		}
		if i < len(e.stages)-1 && counts[i] > 0 {
			next := counts[i+1]
			conv := float64(next) / float64(counts[i]) * 100
			drop := float64(counts[i]-next) / float64(counts[i]) * 100
			sm.ConversionToNext = &conv
			sm.DropOff = &drop
		}
		result.Stages = append(result.Stages, sm)
	}

	if len(counts) > 0 && counts[0] > 0 {
		result.OverallConversion = float64(counts[len(counts)-1]) / float64(counts[0]) * 100
	}
	result.AvgCycleTime = avgCycleTime(records)

	return result
}

// avgTimeInStage is the mean duration of events leaving the stage,
// converted from milliseconds to days. This is the one computation
// that needs real history: without stage events it is nil everywhere.
func (e *Engine) avgTimeInStage(stage string) *float64 {
	total, n := 0.0, 0
	for _, ev := range e.events {
		if ev.FromStage == nil || *ev.FromStage != stage || ev.DurationMs == nil {
			continue
		}
		total += *ev.DurationMs / msPerDay
		n++
	}
	if n == 0 {
		return nil
	}
	avg := total / float64(n)
	return &avg
}

func avgCycleTime(records []core.Record) *float64 {
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
	avg := total / float64(n)
	return &avg
}

// Transitions groups the stage events by (from, to) pair, excluding
// initial-creation events, and reports each pair's count, share of all
// movements, and mean duration when durations are recorded. Sorted
// descending by count.
func (e *Engine) Transitions() []Transition {
	type acc struct {
		count    int
		duration float64
		withDur  int
	}

	pairs := make(map[string]*acc)
	order := []string{}
	total := 0
	for _, ev := range e.events {
		if ev.FromStage == nil {
			continue
		}
		total++
		key := *ev.FromStage + "\x00" + ev.ToStage
		a, ok := pairs[key]
		if !ok {
			a = &acc{}
			pairs[key] = a
			order = append(order, key)
		}
		a.count++
		if ev.DurationMs != nil {
			a.duration += *ev.DurationMs / msPerDay
			a.withDur++
		}
	}

	transitions := make([]Transition, 0, len(order))
	for _, key := range order {
		a := pairs[key]
		from, to, _ := strings.Cut(key, "\x00")

		tr := Transition{
			From:       from,
			To:         to,
			Count:      a.count,
			Percentage: float64(a.count) / float64(total) * 100,
		}
		if a.withDur > 0 {
			avg := a.duration / float64(a.withDur)
			tr.AvgDuration = &avg
		}
		transitions = append(transitions, tr)
	}

	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].Count > transitions[j].Count
	})
	return transitions
}

// InferStages builds a stage list from the distinct statuses in record
// order, assigning order by first appearance. The resulting sequence
// depends on input iteration order, which callers relying on inferred
// stages need to be aware of.
func InferStages(records []core.Record) []Stage {
	seen := make(map[string]bool)
	stages := []Stage{}
	for _, rec := range records {
		if rec.Status == "" || seen[rec.Status] {
			continue
		}
		seen[rec.Status] = true
		stages = append(stages, Stage{Name: rec.Status, Order: len(stages)})
	}
	return stages
}
