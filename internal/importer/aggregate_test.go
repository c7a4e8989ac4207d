package importer_test

import (
	"strconv"
	"testing"
	"time"

	. "gopkg.in/check.v1"

	"kaoqin/internal/importer"
	"kaoqin/internal/model"
)

func Test(t *testing.T) { TestingT(t) }

type aggregateSuite struct{}

var _ = Suite(&aggregateSuite{})

const semesterLabel = "2025-2026学年第一学期"

// meeting builds one Monday-08:00 occurrence of CS101 in the given week.
func meeting(week int, day time.Time) model.Occurrence {
	return model.Occurrence{
		UID:         "uid-cs101",
		Summary:     "数据结构（必修课）",
		Description: "课程代码: CS101\n教师: 王老师\n周次: " + strconv.Itoa(week),
		Location:    "教学楼A201",
		Start:       time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC),
		End:         time.Date(day.Year(), day.Month(), day.Day(), 9, 40, 0, 0, time.UTC),
	}
}

func (s *aggregateSuite) TestFoldsOccurrencesIntoOneRecord(c *C) {
	// 2025-09-15 and 2025-09-29 are both Mondays (weeks 3 and 5).
	occs := []model.Occurrence{
		meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)),
		meeting(5, time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)),
	}

	res := importer.Aggregate(occs, semesterLabel)
	c.Assert(res.Records, HasLen, 1)

	rec := res.Records[0]
	c.Check(rec.CourseID, Equals, "CS101-1-0800")
	c.Check(rec.Name, Equals, "数据结构")
	c.Check(rec.Teacher, Equals, "王老师")
	c.Check(rec.CourseTime, Equals, "周一 08:00-09:40")
	c.Check(rec.Place, Equals, "教学楼A201")
	c.Check(rec.Semester, Equals, semesterLabel)
	c.Check(rec.WeekRange, Equals, "3,5")
}

func (s *aggregateSuite) TestConsecutiveWeeksMerge(c *C) {
	var occs []model.Occurrence
	day := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	for week := 1; week <= 8; week++ {
		occs = append(occs, meeting(week, day))
		day = day.AddDate(0, 0, 7)
	}

	res := importer.Aggregate(occs, semesterLabel)
	c.Assert(res.Records, HasLen, 1)
	c.Check(res.Records[0].WeekRange, Equals, "1-8")
}

func (s *aggregateSuite) TestDifferentMeetingTimesSplit(c *C) {
	// Same course code on Monday 08:00 and Wednesday 14:00 becomes two
	// records with distinct composite identities.
	mon := meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC))
	wed := model.Occurrence{
		UID:         "uid-cs101",
		Summary:     "数据结构（必修课）",
		Description: "课程代码: CS101\n教师: 王老师\n周次: 3",
		Location:    "教学楼B102",
		Start:       time.Date(2025, 9, 17, 14, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 9, 17, 15, 40, 0, 0, time.UTC),
	}

	res := importer.Aggregate([]model.Occurrence{mon, wed}, semesterLabel)
	c.Assert(res.Records, HasLen, 2)
	c.Check(res.Records[0].CourseID, Equals, "CS101-1-0800")
	c.Check(res.Records[1].CourseID, Equals, "CS101-3-1400")
	c.Check(res.Records[1].CourseTime, Equals, "周三 14:00-15:40")
}

func (s *aggregateSuite) TestOccurrenceWithoutCodeSkipped(c *C) {
	occs := []model.Occurrence{
		{
			Summary:     "校运动会",
			Description: "全校活动",
			Start:       time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 9, 15, 17, 0, 0, 0, time.UTC),
		},
		meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)),
	}

	res := importer.Aggregate(occs, semesterLabel)
	c.Check(res.Records, HasLen, 1)
	c.Check(res.SkippedNoCode, Equals, 1)
}

func (s *aggregateSuite) TestMissingTeacherDefaults(c *C) {
	occ := meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC))
	occ.Description = "课程代码: CS101\n周次: 3"

	res := importer.Aggregate([]model.Occurrence{occ}, semesterLabel)
	c.Assert(res.Records, HasLen, 1)
	c.Check(res.Records[0].Teacher, Equals, "未知")
}

func (s *aggregateSuite) TestNoWeekNumbersMeansNoRestriction(c *C) {
	occ := meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC))
	occ.Description = "课程代码: CS101\n教师: 王老师"

	res := importer.Aggregate([]model.Occurrence{occ}, semesterLabel)
	c.Assert(res.Records, HasLen, 1)
	c.Check(res.Records[0].WeekRange, Equals, "")
}

func (s *aggregateSuite) TestAllDayOccurrenceGetsPlaceholderTime(c *C) {
	occ := meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC))
	occ.AllDay = true

	res := importer.Aggregate([]model.Occurrence{occ}, semesterLabel)
	c.Assert(res.Records, HasLen, 1)
	c.Check(res.Records[0].CourseID, Equals, "CS101-0-0000")
	c.Check(res.Records[0].CourseTime, Equals, "待定")
}

func (s *aggregateSuite) TestCourseKindStripped(c *C) {
	occ := meeting(3, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC))
	occ.Summary = "大学英语(选修课)"

	res := importer.Aggregate([]model.Occurrence{occ}, semesterLabel)
	c.Assert(res.Records, HasLen, 1)
	c.Check(res.Records[0].Name, Equals, "大学英语")
}
