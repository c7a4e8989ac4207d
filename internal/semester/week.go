// Package semester implements the semester week arithmetic: mapping
// calendar dates onto a bounded 1-based week index anchored at a configured
// Monday, and the compact week-range notation used on course records.
package semester

import "time"

// Calendar maps calendar dates to semester week numbers. The anchor is the
// Monday of week 1; dates before it or past maxWeeks have no week number.
// Calendar is immutable and safe for concurrent use.
type Calendar struct {
	anchor   time.Time
	maxWeeks int
	now      func() time.Time
}

// NewCalendar builds a Calendar. The anchor is truncated to midnight in its
// own location. now supplies "today" for CurrentWeek; nil means time.Now.
func NewCalendar(anchor time.Time, maxWeeks int, now func() time.Time) *Calendar {
	loc := anchor.Location()
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)
	if maxWeeks <= 0 {
		maxWeeks = 20
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{anchor: anchor, maxWeeks: maxWeeks, now: now}
}

// MaxWeeks returns the configured week bound.
func (c *Calendar) MaxWeeks() int { return c.maxWeeks }

// Anchor returns the Monday of week 1.
func (c *Calendar) Anchor() time.Time { return c.anchor }

// WeekNumber returns the 1-based week index containing d, and whether d is
// inside the semester at all.
func (c *Calendar) WeekNumber(d time.Time) (int, bool) {
	d = d.In(c.anchor.Location())
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.anchor.Location())

	days := int(day.Sub(c.anchor).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	week := days/7 + 1
	if week > c.maxWeeks {
		return 0, false
	}
	return week, true
}

// WeekDateRange returns the Monday and Sunday of the given week. The week
// number is not bounds-checked: callers may ask about weeks outside the
// semester and still get an arithmetically consistent pair.
func (c *Calendar) WeekDateRange(week int) (monday, sunday time.Time) {
	monday = c.anchor.AddDate(0, 0, 7*(week-1))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// CurrentWeek returns the week index of today per the injected clock.
func (c *Calendar) CurrentWeek() (int, bool) {
	return c.WeekNumber(c.now())
}
