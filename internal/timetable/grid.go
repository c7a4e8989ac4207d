// Package timetable assembles the weekly day×slot grid shown on the
// timetable page from parsed course schedules.
package timetable

import (
	"sort"

	"kaoqin/internal/model"
	"kaoqin/internal/schedule"
	"kaoqin/internal/semester"
)

// RowSlot is one display row of the grid, covering an inclusive period
// range. Slots are configured, ordered by Index, and usually group two
// consecutive periods.
type RowSlot struct {
	Index       int
	Label       string
	StartPeriod int
	EndPeriod   int
	// TimeDisplay is the clock range covered by the slot, e.g.
	// "08:00~09:40"; derived from the period table at construction.
	TimeDisplay string
}

// CellKey addresses one grid cell.
type CellKey struct {
	Weekday int // 0 = Monday
	Slot    int // RowSlot index
}

// Placement is one course's occupancy of a grid cell. Ephemeral: rebuilt
// on every render, never stored.
type Placement struct {
	CourseID  string `json:"course_id"`
	Name      string `json:"name"`
	Teacher   string `json:"teacher"`
	Place     string `json:"place"`
	WeekRange string `json:"week_range"`
	RawTime   string `json:"raw_time"`
	ColorBG   string `json:"color_bg"`
	// SpanSlots is how many consecutive row slots the placement covers;
	// the renderer merges that many cells vertically.
	SpanSlots   int `json:"span_slots"`
	StartPeriod int `json:"start_period"`
	EndPeriod   int `json:"end_period"`
}

// Grid maps cells to their placements, insertion-ordered by course
// processing order.
type Grid map[CellKey][]Placement

// Builder assembles weekly grids against a fixed slot layout and period
// table. Immutable and safe for concurrent Build calls; each call owns its
// own transient grid.
type Builder struct {
	slots []RowSlot
	table *schedule.PeriodTable
}

// NewBuilder builds a Builder. Slots are sorted by index and annotated
// with their clock-range display text.
func NewBuilder(slots []RowSlot, table *schedule.PeriodTable) *Builder {
	ordered := make([]RowSlot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	for i := range ordered {
		start, okS := table.Span(ordered[i].StartPeriod)
		end, okE := table.Span(ordered[i].EndPeriod)
		if okS && okE {
			ordered[i].TimeDisplay = schedule.FormatClock(start.Start) + "~" + schedule.FormatClock(end.End)
		} else {
			ordered[i].TimeDisplay = "时间未定"
		}
	}

	return &Builder{slots: ordered, table: table}
}

// Slots returns the annotated row-slot layout for rendering headers.
func (b *Builder) Slots() []RowSlot { return b.slots }

// Build places every course active in the given week onto the grid.
// Courses whose week set excludes the week are filtered here; courses
// whose time text yields no interval are dropped from the grid and
// returned in unparsed, so the caller can report the data-quality issue.
//
// Each interval lands in the lowest-index slot it overlaps, carrying the
// count of all overlapped slots as its span. A placement identical in
// course ID and raw schedule text to one already in the cell is not added
// again; distinct intervals of one course and distinct courses all appear.
func (b *Builder) Build(week int, courses []model.Course) (grid Grid, unparsed []string) {
	grid = make(Grid)

	for _, course := range courses {
		if !semester.ParseWeekSet(course.WeekRange).Contains(week) {
			continue
		}

		intervals := schedule.ParseCourseTime(course.CourseTime, b.table)
		if len(intervals) == 0 {
			unparsed = append(unparsed, course.CourseID)
			continue
		}

		for _, iv := range intervals {
			matched := b.matchingSlots(iv)
			if len(matched) == 0 {
				continue
			}

			key := CellKey{Weekday: iv.Weekday, Slot: matched[0].Index}
			if hasDuplicate(grid[key], course) {
				continue
			}

			weekRange := course.WeekRange
			if weekRange == "" {
				weekRange = "全学期"
			}

			grid[key] = append(grid[key], Placement{
				CourseID:    course.CourseID,
				Name:        course.CourseName,
				Teacher:     course.TeacherName,
				Place:       course.CoursePlace,
				WeekRange:   weekRange,
				RawTime:     course.CourseTime,
				ColorBG:     ColorFor(course.CourseID),
				SpanSlots:   len(matched),
				StartPeriod: iv.StartPeriod,
				EndPeriod:   iv.EndPeriod,
			})
		}
	}

	return grid, unparsed
}

// matchingSlots returns the row slots overlapping the interval, ascending
// by slot index.
func (b *Builder) matchingSlots(iv schedule.Interval) []RowSlot {
	var matched []RowSlot
	for _, slot := range b.slots {
		if iv.StartPeriod <= slot.EndPeriod && iv.EndPeriod >= slot.StartPeriod {
			matched = append(matched, slot)
		}
	}
	return matched
}

func hasDuplicate(cell []Placement, course model.Course) bool {
	for _, p := range cell {
		if p.CourseID == course.CourseID && p.RawTime == course.CourseTime {
			return true
		}
	}
	return false
}
