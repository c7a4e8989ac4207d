package importer_test

import (
	"context"
	"strings"
	"time"

	. "gopkg.in/check.v1"

	"kaoqin/internal/config"
	"kaoqin/internal/ics"
	"kaoqin/internal/importer"
	"kaoqin/internal/model"
)

type fakeSink struct {
	courses []model.Course
}

func (f *fakeSink) UpsertCourses(courses []model.Course) (int, int, error) {
	f.courses = append(f.courses, courses...)
	return len(courses), 0, nil
}

type serviceSuite struct{}

var _ = Suite(&serviceSuite{})

func calendarBody(events ...string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//jwxt//class schedule//CN",
	}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR", "")
	return []byte(strings.Join(lines, "\r\n"))
}

func (s *serviceSuite) TestImportBodyEndToEnd(c *C) {
	cfg := config.DefaultConfig()
	sink := &fakeSink{}
	svc := importer.NewService(cfg, time.UTC, nil, sink)

	// Two meetings of the same course on consecutive Mondays, each feed
	// event carrying its own week number.
	body := calendarBody(
		"BEGIN:VEVENT",
		"UID:cs101-w3@jwxt",
		"SUMMARY:数据结构（必修课）",
		"DESCRIPTION:课程代码: CS101 教师: 王老师 周次: 3",
		"LOCATION:教学楼A-201",
		"DTSTART:20250915T080000Z",
		"DTEND:20250915T094000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:cs101-w4@jwxt",
		"SUMMARY:数据结构（必修课）",
		"DESCRIPTION:课程代码: CS101 教师: 王老师 周次: 4",
		"LOCATION:教学楼A-201",
		"DTSTART:20250922T080000Z",
		"DTEND:20250922T094000Z",
		"END:VEVENT",
	)

	sum, err := svc.ImportBody(body, ics.Source{ID: "upload"})
	c.Assert(err, IsNil)
	c.Check(sum.Events, Equals, 2)
	c.Check(sum.Occurrences, Equals, 2)
	c.Check(sum.Created, Equals, 1)
	c.Check(sum.SkippedNoCode, Equals, 0)

	c.Assert(sink.courses, HasLen, 1)
	course := sink.courses[0]
	c.Check(course.CourseID, Equals, "CS101-1-0800")
	c.Check(course.CourseName, Equals, "数据结构")
	c.Check(course.TeacherName, Equals, "王老师")
	c.Check(course.CourseTime, Equals, "周一 08:00-09:40")
	c.Check(course.WeekRange, Equals, "3-4")
	c.Check(course.Semester, Equals, cfg.Semester)
}

func (s *serviceSuite) TestImportBodyOutsideSemesterWindow(c *C) {
	cfg := config.DefaultConfig()
	sink := &fakeSink{}
	svc := importer.NewService(cfg, time.UTC, nil, sink)

	// A meeting after week 20 never reaches the aggregator.
	body := calendarBody(
		"BEGIN:VEVENT",
		"UID:late@jwxt",
		"SUMMARY:补课",
		"DESCRIPTION:课程代码: CS101",
		"DTSTART:20260301T080000Z",
		"DTEND:20260301T094000Z",
		"END:VEVENT",
	)

	sum, err := svc.ImportBody(body, ics.Source{ID: "upload"})
	c.Assert(err, IsNil)
	c.Check(sum.Events, Equals, 1)
	c.Check(sum.Occurrences, Equals, 0)
	c.Check(sink.courses, HasLen, 0)
}

func (s *serviceSuite) TestRefreshAllWithoutSources(c *C) {
	cfg := config.DefaultConfig()
	svc := importer.NewService(cfg, time.UTC, nil, &fakeSink{})

	sum, err := svc.RefreshAll(context.Background())
	c.Assert(err, IsNil)
	c.Check(sum.Sources, Equals, 0)
}
