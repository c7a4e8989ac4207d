package schedule

import "time"

// Weekday tokens. Internally weekdays are 0-based Monday..Sunday, matching
// the column order of the rendered grid.
var (
	cnWeekdayMap = map[rune]int{
		'一': 0, '二': 1, '三': 2, '四': 3, '五': 4, '六': 5, '日': 6, '天': 6,
	}

	// WeekdayShort is "周一".."周日", indexed by the internal weekday.
	WeekdayShort = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

	// DayHeaders are the grid column headers, "星期一".."星期日".
	DayHeaders = [7]string{"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日"}
)

// WeekdayIndex converts a time.Weekday (Sunday-based) into the internal
// Monday-based index.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
