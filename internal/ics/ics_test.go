package ics

import (
	"strconv"
	"strings"
	"testing"
	"time"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type parseSuite struct{}

var _ = Suite(&parseSuite{})

func icsBody(lines ...string) []byte {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//jwxt//class schedule//CN",
	}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func (s *parseSuite) TestParseSimpleEvent(c *C) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:class-cs101-1@jwxt",
		"SUMMARY:数据结构（必修课）",
		"DESCRIPTION:课程代码: CS101 教师: 王老师 周次: 3",
		"LOCATION:教学楼A-201",
		"DTSTART:20250915T000000Z",
		"DTEND:20250915T014000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(Source{ID: "jw"}, body)
	c.Assert(err, IsNil)
	c.Assert(events, HasLen, 1)

	ev := events[0]
	c.Check(ev.UID, Equals, "class-cs101-1@jwxt")
	c.Check(ev.Summary, Equals, "数据结构（必修课）")
	c.Check(ev.Location, Equals, "教学楼A-201")
	c.Check(ev.Description, Matches, `.*CS101.*`)
	c.Check(ev.AllDay, Equals, false)
	c.Check(ev.RawRRule, Equals, "")
	c.Check(ev.Start.UTC().Equal(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)), Equals, true)
	c.Check(ev.End.Sub(ev.Start), Equals, 100*time.Minute)
}

func (s *parseSuite) TestParseRecurringEventWithExdate(c *C) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:class-ma202@jwxt",
		"SUMMARY:线性代数",
		"DTSTART:20250916T020000Z",
		"DTEND:20250916T034000Z",
		"RRULE:FREQ=WEEKLY;COUNT=8",
		"EXDATE:20250930T020000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(Source{ID: "jw"}, body)
	c.Assert(err, IsNil)
	c.Assert(events, HasLen, 1)

	ev := events[0]
	c.Check(ev.RawRRule, Equals, "FREQ=WEEKLY;COUNT=8")
	c.Assert(ev.ExDates, HasLen, 1)
	c.Check(ev.ExDates[0].Equal(time.Date(2025, 9, 30, 2, 0, 0, 0, time.UTC)), Equals, true)
}

func (s *parseSuite) TestEventWithoutUIDSkipped(c *C) {
	body := icsBody(
		"BEGIN:VEVENT",
		"SUMMARY:no uid",
		"DTSTART:20250915T000000Z",
		"DTEND:20250915T010000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:kept@jwxt",
		"SUMMARY:kept",
		"DTSTART:20250915T000000Z",
		"DTEND:20250915T010000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(Source{ID: "jw"}, body)
	c.Assert(err, IsNil)
	c.Assert(events, HasLen, 1)
	c.Check(events[0].UID, Equals, "kept@jwxt")
}

func (s *parseSuite) TestAllDayDetectedFromDateValue(c *C) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:holiday@jwxt",
		"SUMMARY:国庆节",
		"DTSTART;VALUE=DATE:20251001",
		"DTEND;VALUE=DATE:20251002",
		"END:VEVENT",
	)

	events, err := ParseICS(Source{ID: "jw"}, body)
	c.Assert(err, IsNil)
	c.Assert(events, HasLen, 1)
	c.Check(events[0].AllDay, Equals, true)
}

func (s *parseSuite) TestEmptyBodyRejected(c *C) {
	_, err := ParseICS(Source{ID: "jw"}, nil)
	c.Check(err, NotNil)
}

type expandSuite struct {
	window ExpandConfig
}

var _ = Suite(&expandSuite{})

func (s *expandSuite) SetUpTest(c *C) {
	s.window = ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2026, 1, 18, 23, 59, 59, 0, time.UTC),
	}
}

func weeklyEvent(uid string, count int) ParsedEvent {
	return ParsedEvent{
		Source:   Source{ID: "jw"},
		UID:      uid,
		Summary:  "数据结构",
		Start:    time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 9, 15, 9, 40, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;COUNT=" + strconv.Itoa(count),
	}
}

func (s *expandSuite) TestWeeklyRecurrence(c *C) {
	res, err := ExpandOccurrences([]ParsedEvent{weeklyEvent("u1", 4)}, s.window)
	c.Assert(err, IsNil)
	c.Assert(res.Occurrences, HasLen, 4)

	// Consecutive Mondays, duration preserved.
	for i, occ := range res.Occurrences {
		want := time.Date(2025, 9, 15+7*i, 8, 0, 0, 0, time.UTC)
		c.Check(occ.Start.Equal(want), Equals, true, Commentf("occurrence %d", i))
		c.Check(occ.End.Sub(occ.Start), Equals, 100*time.Minute)
	}
}

func (s *expandSuite) TestExdateRemovesInstance(c *C) {
	ev := weeklyEvent("u2", 4)
	ev.ExDates = []time.Time{time.Date(2025, 9, 22, 8, 0, 0, 0, time.UTC)}

	res, err := ExpandOccurrences([]ParsedEvent{ev}, s.window)
	c.Assert(err, IsNil)
	c.Assert(res.Occurrences, HasLen, 3)
	for _, occ := range res.Occurrences {
		c.Check(occ.Start.Day(), Not(Equals), 22)
	}
}

func (s *expandSuite) TestOverrideReplacesInstance(c *C) {
	base := weeklyEvent("u3", 2)
	moved := time.Date(2025, 9, 22, 8, 0, 0, 0, time.UTC)
	override := ParsedEvent{
		Source:     Source{ID: "jw"},
		UID:        "u3",
		Summary:    "数据结构（调课）",
		Location:   "教学楼B-101",
		Start:      time.Date(2025, 9, 23, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 9, 23, 11, 40, 0, 0, time.UTC),
		Recurrence: &moved,
		IsOverride: true,
	}

	res, err := ExpandOccurrences([]ParsedEvent{base, override}, s.window)
	c.Assert(err, IsNil)
	c.Assert(res.Occurrences, HasLen, 2)

	var overridden int
	for _, occ := range res.Occurrences {
		if occ.Summary == "数据结构（调课）" {
			overridden++
			c.Check(occ.Start.Equal(time.Date(2025, 9, 23, 10, 0, 0, 0, time.UTC)), Equals, true)
			c.Check(occ.Location, Equals, "教学楼B-101")
		}
	}
	c.Check(overridden, Equals, 1)
}

func (s *expandSuite) TestSingleEventOutsideWindowExcluded(c *C) {
	ev := ParsedEvent{
		Source: Source{ID: "jw"},
		UID:    "u4",
		Start:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	res, err := ExpandOccurrences([]ParsedEvent{ev}, s.window)
	c.Assert(err, IsNil)
	c.Check(res.Occurrences, HasLen, 0)
}

func (s *expandSuite) TestRecurrenceBoundedByWindow(c *C) {
	// An unbounded weekly rule only yields instances inside the window.
	ev := weeklyEvent("u5", 0)
	ev.RawRRule = "FREQ=WEEKLY"

	res, err := ExpandOccurrences([]ParsedEvent{ev}, s.window)
	c.Assert(err, IsNil)
	// Mondays from 2025-09-15 through 2026-01-12 inclusive.
	c.Check(res.Occurrences, HasLen, 18)
}

func (s *expandSuite) TestOccurrenceCap(c *C) {
	ev := weeklyEvent("u6", 0)
	ev.RawRRule = "FREQ=DAILY"

	cfg := s.window
	cfg.MaxOccurrencesPerEvent = 10

	res, err := ExpandOccurrences([]ParsedEvent{ev}, cfg)
	c.Assert(err, IsNil)
	c.Check(res.Occurrences, HasLen, 10)
	c.Check(res.TruncatedEvents, DeepEquals, []string{"u6"})
}

func (s *expandSuite) TestInvertedWindowRejected(c *C) {
	cfg := s.window
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart
	_, err := ExpandOccurrences(nil, cfg)
	c.Check(err, NotNil)
}
