// Package schedule resolves free-text course meeting descriptions into
// (weekday, period range) intervals against a configured period table.
package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Tolerances for matching loosely-rounded clock times onto the period
// table. Source schedules routinely list meetings a few minutes off the
// official bell times.
const (
	startSlackMinutes    = 15 // accepted drift around a period's start
	trailingSlackMinutes = 20 // past the last period's end
	fallbackSlackMinutes = 60 // nearest-start fallback cutoff
)

// PeriodSpan is one row of the period table: a period number and its
// clock-time range, both ends in minutes from midnight.
type PeriodSpan struct {
	Period int
	Start  int
	End    int
}

// PeriodTable is the fixed, ascending period → clock-time table. Gaps
// between consecutive periods (morning break, lunch, dinner) are allowed
// and meaningful. Immutable after construction.
type PeriodTable struct {
	spans  []PeriodSpan
	byName map[int]PeriodSpan
}

// NewPeriodTable builds a table from spans. Spans are sorted by period
// number; the table must be monotonic (each period's end must not pass the
// next period's start).
func NewPeriodTable(spans []PeriodSpan) (*PeriodTable, error) {
	if len(spans) == 0 {
		return nil, fmt.Errorf("schedule: empty period table")
	}

	sorted := make([]PeriodSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	byName := make(map[int]PeriodSpan, len(sorted))
	for i, sp := range sorted {
		if sp.Period < 1 {
			return nil, fmt.Errorf("schedule: bad period number %d", sp.Period)
		}
		if sp.Start < 0 || sp.End < sp.Start {
			return nil, fmt.Errorf("schedule: inverted time range for period %d", sp.Period)
		}
		if _, dup := byName[sp.Period]; dup {
			return nil, fmt.Errorf("schedule: duplicate period %d", sp.Period)
		}
		if i > 0 && sorted[i-1].End > sp.Start {
			return nil, fmt.Errorf("schedule: period %d overlaps period %d", sorted[i-1].Period, sp.Period)
		}
		byName[sp.Period] = sp
	}

	return &PeriodTable{spans: sorted, byName: byName}, nil
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Span returns the clock-time range of a period.
func (t *PeriodTable) Span(period int) (PeriodSpan, bool) {
	sp, ok := t.byName[period]
	return sp, ok
}

// MinPeriod and MaxPeriod bound the valid period numbers.
func (t *PeriodTable) MinPeriod() int { return t.spans[0].Period }
func (t *PeriodTable) MaxPeriod() int { return t.spans[len(t.spans)-1].Period }

// PeriodFromClock resolves an arbitrary clock time (hour, minute) to a
// period number. Tie-break order, first match wins:
//
//  1. exact containment: start ≤ t ≤ end
//  2. within 15 minutes of a period's start, either side
//  3. strictly inside the gap between period i and i+1: whichever boundary
//     is closer, ties going to the earlier period
//  4. up to 20 minutes past the last period's end
//  5. nearest period by start-time distance, accepted within 60 minutes
//
// The ordering is part of the contract: reordering the rules changes which
// period loosely-rounded source times resolve to.
func (t *PeriodTable) PeriodFromClock(hour, minute int) (int, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	m := hour*60 + minute

	for i, sp := range t.spans {
		if sp.Start <= m && m <= sp.End {
			return sp.Period, true
		}
		if abs(m-sp.Start) <= startSlackMinutes {
			return sp.Period, true
		}
		if i < len(t.spans)-1 {
			next := t.spans[i+1]
			if sp.End < m && m < next.Start {
				if m-sp.End <= next.Start-m {
					return sp.Period, true
				}
				return next.Period, true
			}
		} else if m > sp.End && m-sp.End <= trailingSlackMinutes {
			return sp.Period, true
		}
	}

	best, bestDiff := 0, fallbackSlackMinutes+1
	for _, sp := range t.spans {
		if d := abs(m - sp.Start); d < bestDiff {
			best, bestDiff = sp.Period, d
		}
	}
	if bestDiff <= fallbackSlackMinutes {
		return best, true
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
