package scoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/merit/internal/scoring"
)

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2026, time.November, 15, 10, 30, 0, 0, time.UTC)
	last := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
	}

	tests := []struct {
		typ   scoring.PeriodType
		start time.Time
		end   time.Time
	}{
		{scoring.PeriodMonthly, time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), last(2026, time.November, 30)},
		{scoring.PeriodQuarterly, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), last(2026, time.December, 31)},
		{scoring.PeriodYearly, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), last(2026, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p, err := scoring.ResolvePeriod(tt.typ, now)
			if err != nil {
				t.Fatalf("ResolvePeriod() error = %v", err)
			}
			if !p.Start.Equal(tt.start) || !p.End.Equal(tt.end) {
				t.Errorf("period = %s, want %s..%s", p, tt.start, tt.end)
			}
			if !p.Contains(now) {
				t.Errorf("period %s does not contain %s", p, now)
			}
		})
	}

	t.Run("custom rejected", func(t *testing.T) {
		if _, err := scoring.ResolvePeriod(scoring.PeriodCustom, now); !errors.Is(err, scoring.ErrInvalidPeriod) {
			t.Errorf("error = %v, want ErrInvalidPeriod", err)
		}
	})

	t.Run("location honored", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*3600)
		p, err := scoring.ResolvePeriod(scoring.PeriodMonthly, time.Date(2026, time.December, 1, 2, 0, 0, 0, time.UTC).In(loc))
		if err != nil {
			t.Fatalf("ResolvePeriod() error = %v", err)
		}
		if p.Start.Month() != time.November {
			t.Errorf("Start = %s, want November in UTC-5", p.Start)
		}
	})
}

func TestPeriodNext(t *testing.T) {
	p, _ := scoring.ResolvePeriod(scoring.PeriodQuarterly, time.Date(2026, time.November, 15, 0, 0, 0, 0, time.UTC))
	next := p.Next()

	if !next.Start.Equal(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Next().Start = %s, want 2027-01-01", next.Start)
	}
	if next.End.Month() != time.March || next.End.Day() != 31 {
		t.Errorf("Next().End = %s, want 2027-03-31", next.End)
	}

	custom, err := scoring.CustomPeriod(
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 14, 23, 59, 59, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("CustomPeriod() error = %v", err)
	}
	cn := custom.Next()
	if cn.End.Sub(cn.Start) != custom.End.Sub(custom.Start) {
		t.Errorf("custom Next() length = %s, want %s", cn.End.Sub(cn.Start), custom.End.Sub(custom.Start))
	}
	if !cn.Start.After(custom.End) {
		t.Errorf("custom Next().Start = %s, should follow %s", cn.Start, custom.End)
	}
}

func TestParsePeriodType(t *testing.T) {
	if _, err := scoring.ParsePeriodType("weekly"); !errors.Is(err, scoring.ErrInvalidPeriod) {
		t.Errorf("ParsePeriodType(weekly) error = %v, want ErrInvalidPeriod", err)
	}
	if got, err := scoring.ParsePeriodType("quarterly"); err != nil || got != scoring.PeriodQuarterly {
		t.Errorf("ParsePeriodType(quarterly) = %v, %v", got, err)
	}
	if _, err := scoring.CustomPeriod(time.Now(), time.Now().Add(-time.Hour)); !errors.Is(err, scoring.ErrInvalidPeriod) {
		t.Errorf("CustomPeriod(reversed) error = %v, want ErrInvalidPeriod", err)
	}
}
