package metrics

// period.go constructs canonical calendar periods. Boundaries are
// computed in UTC so that labels and comparisons are deterministic
// regardless of server timezone. Weeks start on Monday; period ends
// carry millisecond precision (23:59:59.999) to match the inclusive
// boundary convention of the rest of the system.

import (
	"fmt"
	"time"
)

// NewPeriod returns the canonical period of the given type containing
// the reference time. PeriodCustom keeps the reference instant as both
// boundaries; callers widen it themselves.
func NewPeriod(t PeriodType, ref time.Time) Period {
	ref = ref.UTC()

	switch t {
	case PeriodDay:
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		return Period{
			Type:  PeriodDay,
			Start: start,
			End:   endOf(start.AddDate(0, 0, 1)),
			Label: start.Format("Jan 2, 2006"),
		}

	case PeriodWeek:
		// Monday-start week.
		weekday := int(ref.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -(weekday - 1))
		return Period{
			Type:  PeriodWeek,
			Start: start,
			End:   endOf(start.AddDate(0, 0, 7)),
			Label: "Week of " + start.Format("Jan 2, 2006"),
		}

	case PeriodMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Type:  PeriodMonth,
			Start: start,
			End:   endOf(start.AddDate(0, 1, 0)),
			Label: start.Format("January 2006"),
		}

	case PeriodQuarter:
		quarter := (int(ref.Month()) - 1) / 3
		start := time.Date(ref.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Type:  PeriodQuarter,
			Start: start,
			End:   endOf(start.AddDate(0, 3, 0)),
			Label: fmt.Sprintf("Q%d %d", quarter+1, start.Year()),
		}

	case PeriodYear:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Type:  PeriodYear,
			Start: start,
			End:   endOf(start.AddDate(1, 0, 0)),
			Label: start.Format("2006"),
		}

	case PeriodAll:
		return Period{
			Type:  PeriodAll,
			Start: time.Time{},
			End:   endOf(time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)),
			Label: "All time",
		}

	default: // PeriodCustom and anything unrecognized
		return Period{
			Type:  PeriodCustom,
			Start: ref,
			End:   ref,
			Label: "Custom",
		}
	}
}

// PreviousPeriod reconstructs the period immediately before p: the
// reference shifts back exactly one unit of the same type, so adjacent
// periods never overlap and stay contiguous per calendar semantics.
func PreviousPeriod(p Period) Period {
	switch p.Type {
	case PeriodDay:
		return NewPeriod(PeriodDay, p.Start.AddDate(0, 0, -1))
	case PeriodWeek:
		return NewPeriod(PeriodWeek, p.Start.AddDate(0, 0, -7))
	case PeriodMonth:
		return NewPeriod(PeriodMonth, p.Start.AddDate(0, -1, 0))
	case PeriodQuarter:
		return NewPeriod(PeriodQuarter, p.Start.AddDate(0, -3, 0))
	case PeriodYear:
		return NewPeriod(PeriodYear, p.Start.AddDate(-1, 0, 0))
	default:
		// All has no predecessor; a custom range shifts back by its
		// own length.
		if p.Type == PeriodAll {
			return p
		}
		span := p.End.Sub(p.Start)
		return Period{
			Type:  PeriodCustom,
			Start: p.Start.Add(-span),
			End:   p.Start.Add(-time.Millisecond),
			Label: "Custom",
		}
	}
}

// endOf turns an exclusive next-period start into an inclusive end with
// millisecond precision.
func endOf(nextStart time.Time) time.Time {
	return nextStart.Add(-time.Millisecond)
}
