// Package importer folds per-meeting calendar occurrences into weekly
// course entries with compacted week ranges, and drives the import of
// subscribed feeds into the course store.
package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"kaoqin/internal/model"
	"kaoqin/internal/schedule"
	"kaoqin/internal/semester"
)

// Labeled fields embedded in the portal's VEVENT descriptions.
var (
	courseCodeRe = regexp.MustCompile(`课程代码:\s*(\w+)`)
	teacherRe    = regexp.MustCompile(`教师:\s*(\S+)`)
	weekRe       = regexp.MustCompile(`周次:\s*(\d+)`)

	// Course-kind suffix on summaries, e.g. "高等数学（必修课）".
	courseKindRe = regexp.MustCompile(`[（(](必修课|选修课|限选课)[）)]`)
)

// Record is one aggregated weekly course entry, ready to be stored.
type Record struct {
	CourseID   string // composite identity: code-weekday-HHMM
	Name       string
	Teacher    string
	CourseTime string // formatted weekday + clock range, e.g. "周一 08:00-09:40"
	Place      string
	Semester   string
	WeekRange  string // compact week-range text; empty means every week
}

// Result carries the aggregated records plus the count of occurrences
// dropped for lacking a course code. The drop is informational only; an
// unattributed event is not an error.
type Result struct {
	Records       []Record
	SkippedNoCode int
}

// Aggregate folds a sequence of meeting occurrences into distinct course
// records. Identity is the composite `(courseCode, weekday, startTime)`:
// one calendar series that meets at different times on different days is
// deliberately split into separate entries, since source feeds sometimes
// fold several meeting patterns under one code. Each record accumulates
// the week numbers observed across its occurrences and finalizes them into
// compact week-range notation; a record that never saw a week number keeps
// an empty range, meaning "every week".
func Aggregate(occs []model.Occurrence, semesterLabel string) Result {
	type accumulator struct {
		rec   Record
		weeks map[int]struct{}
	}

	byKey := make(map[string]*accumulator)
	var order []string
	skipped := 0

	for _, occ := range occs {
		codeMatch := courseCodeRe.FindStringSubmatch(occ.Description)
		if codeMatch == nil {
			skipped++
			continue
		}
		code := codeMatch[1]

		teacher := "未知"
		if m := teacherRe.FindStringSubmatch(occ.Description); m != nil {
			teacher = m[1]
		}
		week := 0
		if m := weekRe.FindStringSubmatch(occ.Description); m != nil {
			week, _ = strconv.Atoi(m[1])
		}

		name := strings.TrimSpace(courseKindRe.ReplaceAllString(occ.Summary, ""))

		// All-day occurrences carry no usable meeting time; they still
		// import, under a zero weekday/time identity.
		courseTime := "待定"
		weekdayNum := 0
		timeCode := "0000"
		if !occ.AllDay {
			wd := schedule.WeekdayIndex(occ.Start.Weekday())
			courseTime = schedule.WeekdayShort[wd] + " " + occ.Start.Format("15:04") + "-" + occ.End.Format("15:04")
			weekdayNum = wd + 1
			timeCode = occ.Start.Format("1504")
		}

		key := fmt.Sprintf("%s-%d-%s", code, weekdayNum, timeCode)

		a, ok := byKey[key]
		if !ok {
			a = &accumulator{
				rec: Record{
					CourseID:   key,
					Name:       name,
					Teacher:    teacher,
					CourseTime: courseTime,
					Place:      occ.Location,
					Semester:   semesterLabel,
				},
				weeks: make(map[int]struct{}),
			}
			byKey[key] = a
			order = append(order, key)
		}
		if week > 0 {
			a.weeks[week] = struct{}{}
		}
	}

	records := make([]Record, 0, len(order))
	for _, key := range order {
		a := byKey[key]

		weeks := make([]int, 0, len(a.weeks))
		for w := range a.weeks {
			weeks = append(weeks, w)
		}
		sort.Ints(weeks)
		a.rec.WeekRange = semester.FormatWeeks(weeks)

		records = append(records, a.rec)
	}

	return Result{Records: records, SkippedNoCode: skipped}
}

// Course converts an aggregated record into the persisted course shape.
func (r Record) Course() model.Course {
	return model.Course{
		CourseID:    r.CourseID,
		CourseName:  r.Name,
		TeacherName: r.Teacher,
		CourseTime:  r.CourseTime,
		CoursePlace: r.Place,
		Semester:    r.Semester,
		WeekRange:   r.WeekRange,
	}
}
