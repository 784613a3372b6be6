package scoring

import (
	"fmt"
	"time"
)

// PeriodType identifies the length of a reporting period.
type PeriodType string

// Supported period types.
const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodYearly    PeriodType = "yearly"
	PeriodCustom    PeriodType = "custom"
)

// ParsePeriodType validates s as a PeriodType.
func ParsePeriodType(s string) (PeriodType, error) {
	switch t := PeriodType(s); t {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriod, s)
}

// Period is a reporting window. Start is inclusive and End is the last
// instant of the window (microsecond precision, matching Postgres timestamps).
type Period struct {
	Type  PeriodType `json:"type"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

const lastInstant = time.Microsecond

// ResolvePeriod returns the calendar period of type t containing now, in now's location.
// Custom periods cannot be resolved from a date; use CustomPeriod.
func ResolvePeriod(t PeriodType, now time.Time) (Period, error) {
	loc := now.Location()
	var start, next time.Time

	switch t {
	case PeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	case PeriodQuarterly:
		month := time.Month((int(now.Month())-1)/3*3 + 1)
		start = time.Date(now.Year(), month, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 3, 0)
	case PeriodYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	case PeriodCustom:
		return Period{}, fmt.Errorf("%w: custom periods require explicit bounds", ErrInvalidPeriod)
	default:
		return Period{}, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriod, t)
	}

	return Period{Type: t, Start: start, End: next.Add(-lastInstant)}, nil
}

// CustomPeriod builds a custom period covering start through end inclusive.
func CustomPeriod(start, end time.Time) (Period, error) {
	if !end.After(start) {
		return Period{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidPeriod, end, start)
	}
	return Period{
		Type:  PeriodCustom,
		Start: start.Truncate(lastInstant),
		End:   end.Truncate(lastInstant),
	}, nil
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Next returns the period immediately following p.
func (p Period) Next() Period {
	start := p.End.Add(lastInstant)
	if p.Type == PeriodCustom {
		return Period{Type: PeriodCustom, Start: start, End: start.Add(p.End.Sub(p.Start))}
	}
	next, _ := ResolvePeriod(p.Type, start)
	return next
}

func (p Period) String() string {
	return fmt.Sprintf("%s[%s..%s]", p.Type, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
}
