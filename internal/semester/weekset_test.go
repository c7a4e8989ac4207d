package semester_test

import (
	. "gopkg.in/check.v1"

	"kaoqin/internal/semester"
)

type weekSetSuite struct{}

var _ = Suite(&weekSetSuite{})

func (s *weekSetSuite) TestParseRangeString(c *C) {
	ws := semester.ParseWeekSet("1-8,13,15,17")
	c.Check(ws.IsUniversal(), Equals, false)
	c.Check(ws.Weeks(), DeepEquals, []int{1, 2, 3, 4, 5, 6, 7, 8, 13, 15, 17})
}

func (s *weekSetSuite) TestFormatMergesRuns(c *C) {
	ws := semester.NewWeekSet(1, 2, 3, 4, 5, 6, 7, 8, 13, 15, 17)
	c.Check(ws.Format(), Equals, "1-8,13,15,17")
}

func (s *weekSetSuite) TestRoundTrip(c *C) {
	for _, text := range []string{"1", "9-16", "1-8,13,15,17", "2,4,6,8", "1-3,5-7,20"} {
		c.Check(semester.ParseWeekSet(text).Format(), Equals, text)
	}
}

func (s *weekSetSuite) TestSingleWeekPrintsBare(c *C) {
	c.Check(semester.NewWeekSet(13).Format(), Equals, "13")
}

func (s *weekSetSuite) TestEmptyTextIsUniversal(c *C) {
	for _, text := range []string{"", "   "} {
		ws := semester.ParseWeekSet(text)
		c.Check(ws.IsUniversal(), Equals, true)
		for _, w := range []int{1, 7, 20, 99} {
			c.Check(ws.Contains(w), Equals, true)
		}
	}
}

func (s *weekSetSuite) TestMalformedSegmentsDropped(c *C) {
	ws := semester.ParseWeekSet("1-4,oops,6")
	c.Check(ws.Weeks(), DeepEquals, []int{1, 2, 3, 4, 6})
}

func (s *weekSetSuite) TestInvertedRangeDropped(c *C) {
	ws := semester.ParseWeekSet("8-1,3")
	c.Check(ws.Weeks(), DeepEquals, []int{3})
}

func (s *weekSetSuite) TestWhollyMalformedIsEmptyNotUniversal(c *C) {
	// A garbage string parses to the empty set, which matches no week;
	// only a truly absent range means "every week".
	ws := semester.ParseWeekSet("garbage")
	c.Check(ws.IsUniversal(), Equals, false)
	c.Check(ws.Len(), Equals, 0)
	c.Check(ws.Contains(1), Equals, false)
}

func (s *weekSetSuite) TestContains(c *C) {
	ws := semester.ParseWeekSet("9-16")
	c.Check(ws.Contains(8), Equals, false)
	c.Check(ws.Contains(9), Equals, true)
	c.Check(ws.Contains(16), Equals, true)
	c.Check(ws.Contains(17), Equals, false)
}

func (s *weekSetSuite) TestFormatWeeks(c *C) {
	c.Check(semester.FormatWeeks([]int{3, 5}), Equals, "3,5")
	c.Check(semester.FormatWeeks(nil), Equals, "")
}
