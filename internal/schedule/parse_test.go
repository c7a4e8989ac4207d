package schedule_test

import (
	. "gopkg.in/check.v1"

	"kaoqin/internal/schedule"
)

type parseSuite struct {
	periodSuite
}

var _ = Suite(&parseSuite{})

func (s *parseSuite) TestPeriodNotation(c *C) {
	ivs := schedule.ParseCourseTime("周一3-4节", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 0, StartPeriod: 3, EndPeriod: 4})
}

func (s *parseSuite) TestPeriodNotationVariants(c *C) {
	for _, text := range []string{"周一 3-4节", "周一第3-4节", "周一3-4节课", "周一3-4"} {
		ivs := schedule.ParseCourseTime(text, s.table)
		c.Assert(ivs, HasLen, 1, Commentf("text %q", text))
		c.Check(ivs[0], Equals, schedule.Interval{Weekday: 0, StartPeriod: 3, EndPeriod: 4})
	}
}

func (s *parseSuite) TestSinglePeriod(c *C) {
	ivs := schedule.ParseCourseTime("周五5节", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 4, StartPeriod: 5, EndPeriod: 5})
}

func (s *parseSuite) TestClockNotation(c *C) {
	// 08:00 is period 1's start, 09:40 is period 2's end.
	ivs := schedule.ParseCourseTime("周三 08:00-09:40", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 2, StartPeriod: 1, EndPeriod: 2})
}

func (s *parseSuite) TestClockNotationLooseTimes(c *C) {
	// A meeting listed five minutes before the bell still lands on the
	// same periods.
	ivs := schedule.ParseCourseTime("周二 07:55-09:45", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 1, StartPeriod: 1, EndPeriod: 2})
}

func (s *parseSuite) TestClockNotationSingleEndpoint(c *C) {
	// Only the start resolves (23:59 is beyond any tolerance); the
	// interval degrades to a one-period block.
	ivs := schedule.ParseCourseTime("周五 08:00-23:59", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 4, StartPeriod: 1, EndPeriod: 1})
}

func (s *parseSuite) TestClockNotationInvertedResolution(c *C) {
	// 10:56 falls inside period 4 while 10:40 falls inside period 3,
	// inverting the range; the segment collapses to a single-period
	// block at the start period.
	ivs := schedule.ParseCourseTime("周一 10:56-10:40", s.table)
	c.Assert(ivs, HasLen, 1)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 0, StartPeriod: 4, EndPeriod: 4})
}

func (s *parseSuite) TestClockNotationUnresolvable(c *C) {
	c.Check(schedule.ParseCourseTime("周三 02:00-03:00", s.table), HasLen, 0)
}

func (s *parseSuite) TestMultipleSegments(c *C) {
	ivs := schedule.ParseCourseTime("周一3-4节;周三7-8节", s.table)
	c.Assert(ivs, HasLen, 2)
	c.Check(ivs[0], Equals, schedule.Interval{Weekday: 0, StartPeriod: 3, EndPeriod: 4})
	c.Check(ivs[1], Equals, schedule.Interval{Weekday: 2, StartPeriod: 7, EndPeriod: 8})
}

func (s *parseSuite) TestMixedNotationSegments(c *C) {
	ivs := schedule.ParseCourseTime("周一3-4节/周三 08:00-09:40", s.table)
	c.Assert(ivs, HasLen, 2)
	c.Check(ivs[1], Equals, schedule.Interval{Weekday: 2, StartPeriod: 1, EndPeriod: 2})
}

func (s *parseSuite) TestOutOfRangePeriodsRejected(c *C) {
	c.Check(schedule.ParseCourseTime("周日0-99节", s.table), HasLen, 0)
	c.Check(schedule.ParseCourseTime("周日13节", s.table), HasLen, 0)
}

func (s *parseSuite) TestGarbageYieldsNothing(c *C) {
	for _, text := range []string{"", "   ", "待定", "Monday 3-4", "3-4节"} {
		c.Check(schedule.ParseCourseTime(text, s.table), HasLen, 0, Commentf("text %q", text))
	}
}

func (s *parseSuite) TestDuplicateSegmentsKept(c *C) {
	// Repeated segments are input fidelity, not an error; dedup happens
	// in the grid layer.
	ivs := schedule.ParseCourseTime("周一3-4节;周一3-4节", s.table)
	c.Check(ivs, HasLen, 2)
}

func (s *parseSuite) TestSundayTokens(c *C) {
	for _, text := range []string{"周日9-10节", "周天9-10节"} {
		ivs := schedule.ParseCourseTime(text, s.table)
		c.Assert(ivs, HasLen, 1, Commentf("text %q", text))
		c.Check(ivs[0].Weekday, Equals, 6)
	}
}
